package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		raw     string
		want    []string
		wantErr string
	}{
		{raw: "", want: nil},
		{raw: "   ", want: nil},
		{raw: "# wl-copy", want: nil},
		{raw: "wl-copy --type text/plain", want: []string{"wl-copy", "--type", "text/plain"}},
		{raw: `wtype -d "12"  --`, want: []string{"wtype", "-d", "12", "--"}},
		{raw: `notify-send 'wisp says hi'`, want: []string{"notify-send", "wisp says hi"}},
		{raw: `xdotool type --delay\ 0`, want: []string{"xdotool", "type", "--delay 0"}},
		{raw: `printf "" done`, want: []string{"printf", "", "done"}},
		{raw: `echo it\'s`, want: []string{"echo", "it's"}},
		{raw: `sh -c "echo 'nested'"`, want: []string{"sh", "-c", "echo 'nested'"}},
		{raw: `wl-copy "open`, wantErr: "unterminated quote"},
		{raw: `wl-copy trailing\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			cmd, err := ParseCommand(tc.raw)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.raw, cmd.Raw)
			require.Equal(t, tc.want, cmd.Argv)
		})
	}
}

func TestMustCommandPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() { _ = mustCommand(`wl-copy "unterminated`) })
	require.Equal(t, []string{"wl-copy"}, mustCommand("wl-copy").Argv)
}
