package hypr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	mods, key, err := ParseKey("Shift_R")
	require.NoError(t, err)
	require.Empty(t, mods)
	require.Equal(t, "Shift_R", key)

	mods, key, err = ParseKey("super+alt+space")
	require.NoError(t, err)
	require.Equal(t, "SUPER ALT", mods)
	require.Equal(t, "space", key)

	_, _, err = ParseKey("SUPER+")
	require.ErrorContains(t, err, "has no key")

	_, _, err = ParseKey("+space")
	require.ErrorContains(t, err, "empty modifier")
}

func TestKeymapInstallAndRemoveUseOneBatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	toggle := Bind{Key: "Shift_R", Command: "/usr/bin/wisp toggle"}
	keymap := Keymap{
		Global: []Bind{toggle},
		Submap: "wisp",
		Local:  []Bind{toggle, {Key: "Escape", Command: "/usr/bin/wisp cancel"}},
	}

	require.NoError(t, keymap.Install(context.Background()))
	require.NoError(t, keymap.Remove(context.Background()))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t,
		"--batch keyword bind , Shift_R, exec, /usr/bin/wisp toggle ; keyword submap wisp ; "+
			"keyword bind , Shift_R, exec, /usr/bin/wisp toggle ; keyword bind , Escape, exec, /usr/bin/wisp cancel ; keyword submap reset\n"+
			"--batch keyword unbind , Shift_R ; keyword submap wisp ; "+
			"keyword unbind , Shift_R ; keyword unbind , Escape ; keyword submap reset\n",
		string(data))
}

func TestCLIControllerSubmap(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	ctrl := CLIController{}
	require.NoError(t, ctrl.SetSubmap(context.Background(), "wisp"))
	require.NoError(t, ctrl.ResetSubmap(context.Background()))
	require.ErrorContains(t, ctrl.SetSubmap(context.Background(), " "), "must not be empty")

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "dispatch submap wisp\ndispatch submap reset\n", string(data))
}

func TestBatchWithoutCommandsIsNoop(t *testing.T) {
	installHyprctlStub(t, `
exit 1
`)
	require.NoError(t, Batch(context.Background()))
}
