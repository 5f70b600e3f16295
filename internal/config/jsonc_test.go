package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeJSONC(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain json", input: `{"a":1}`, want: `{"a":1}`},
		{name: "line comment", input: "{\"a\":1 // note\n}", want: "{\"a\":1        \n}"},
		{name: "block comment", input: `{"a":/* x */1}`, want: `{"a":       1}`},
		{name: "trailing comma object", input: `{"a":1,}`, want: `{"a":1 }`},
		{name: "trailing comma array", input: `["x", "y" , ]`, want: `["x", "y"   ]`},
		{name: "comma before comment then brace", input: "{\"a\":1, // done\n}", want: "{\"a\":1         \n}"},
		{name: "comment markers inside strings", input: `{"url":"http://x/*y*/",}`, want: `{"url":"http://x/*y*/" }`},
		{name: "escaped quote inside string", input: `{"q":"say \"hi\", // no",}`, want: `{"q":"say \"hi\", // no" }`},
		{name: "inner comma kept", input: `[1,2]`, want: `[1,2]`},
		{name: "multiline block keeps newlines", input: "{/*a\nb*/}", want: "{   \n   }"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeJSONC(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Len(t, got, len(tc.input))
		})
	}
}

func TestNormalizeJSONCProducesValidJSON(t *testing.T) {
	input := `
{
  // whisper model
  "asr": {"model": "base.en",},
  "corrections": {
    "path": "~/.config/wisp/corrections.json", /* per-user */
  },
}
`
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(normalized)), normalized)
}

func TestNormalizeJSONCUnterminatedBlockComment(t *testing.T) {
	_, err := normalizeJSONC("{ /* unterminated ")
	require.ErrorContains(t, err, "unterminated block comment")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1} {"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))
	require.ErrorContains(t, ensureSingleJSONValue(decoder), "multiple JSON values")

	decoder = json.NewDecoder(strings.NewReader("{}\n"))
	require.NoError(t, decoder.Decode(&payload))
	require.NoError(t, ensureSingleJSONValue(decoder))
}

func TestWrapJSONDecodeErrorReportsPosition(t *testing.T) {
	content := "{\n  \"asr\": {\"threads\": \"four\"}\n}"
	var payload jsoncConfig
	err := wrapJSONDecodeError(content, json.Unmarshal([]byte(content), &payload))
	require.ErrorContains(t, err, "line 2 column")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	for _, tc := range []struct {
		offset    int64
		line, col int
	}{
		{offset: 0, line: 1, col: 1},
		{offset: 1, line: 1, col: 1},
		{offset: 8, line: 2, col: 2},
		{offset: 999, line: 3, col: 5},
	} {
		line, col := offsetToLineCol(content, tc.offset)
		require.Equal(t, []int{tc.line, tc.col}, []int{line, col}, "offset %d", tc.offset)
	}
}
