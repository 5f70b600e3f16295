package hypr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const activeWindowStub = `
if [[ "${1:-}" == "-j" && "${2:-}" == "activewindow" ]]; then
  echo '{"address":" 0xabc ","class":" kitty ","title":"zsh"}'
  exit 0
fi
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`

func TestActiveWindowTrimsFields(t *testing.T) {
	t.Setenv("HYPR_ARGS_FILE", filepath.Join(t.TempDir(), "args.log"))
	installHyprctlStub(t, activeWindowStub)

	w, err := ActiveWindow(context.Background())
	require.NoError(t, err)
	require.Equal(t, Window{Address: "0xabc", Class: "kitty"}, w)
}

func TestWaitActiveWindowGivesUpAfterAttempts(t *testing.T) {
	countFile := filepath.Join(t.TempDir(), "count")
	t.Setenv("HYPR_COUNT_FILE", countFile)
	installHyprctlStub(t, `
echo x >> "${HYPR_COUNT_FILE}"
echo '{"address":""}'
`)

	_, err := WaitActiveWindow(context.Background(), 3, time.Millisecond)
	require.ErrorContains(t, err, "resolve active window")
	require.ErrorContains(t, err, "empty address")

	data, err := os.ReadFile(countFile)
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(string(data), "x"))
}

func TestShortcutPayload(t *testing.T) {
	payload, err := Window{Address: " 0xabc "}.ShortcutPayload(" CTRL,V ")
	require.NoError(t, err)
	require.Equal(t, "CTRL,V,address:0xabc", payload)

	_, err = Window{Address: "0xabc"}.ShortcutPayload(" ")
	require.ErrorContains(t, err, "paste shortcut cannot be empty")

	_, err = Window{}.ShortcutPayload("CTRL,V")
	require.ErrorContains(t, err, "active window address is required")
}

func TestSendShortcutTargetsWindow(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, activeWindowStub)

	require.NoError(t, SendShortcut(context.Background(), "SUPER,V", Window{Address: "0x1"}))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "--quiet dispatch sendshortcut SUPER,V,address:0x1\n", string(data))
}

func TestHyprctlFailureIncludesOutput(t *testing.T) {
	installHyprctlStub(t, `
echo 'boom from hyprctl' >&2
exit 1
`)

	err := SendShortcut(context.Background(), "CTRL,V", Window{Address: "0xabc"})
	require.ErrorContains(t, err, "boom from hyprctl")
	require.ErrorContains(t, err, "hyprctl --quiet dispatch sendshortcut")
}

func TestNotificationShowAndDismiss(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"`)

	ctx := context.Background()
	require.NoError(t, Notification{Icon: IconError, Timeout: 1200 * time.Millisecond, Text: "Speech recognition error"}.Show(ctx))
	require.NoError(t, Notification{Icon: IconInfo, Timeout: time.Second, Color: "rgb(cba6f7)", Text: "Transcribing…"}.Show(ctx))
	require.NoError(t, DismissNotifications(ctx))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, []string{
		"--quiet dispatch notify 3 1200 rgb(89b4fa) Speech recognition error",
		"--quiet dispatch notify 1 1000 rgb(cba6f7) Transcribing…",
		"--quiet dispatch dismissnotify",
	}, strings.Split(strings.TrimSpace(string(data)), "\n"))
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
