package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultCorrections is written when the corrections file does not exist.
const DefaultCorrections = "{\n  \"  \": \" \"\n}\n"

// Entry is one literal substitution.
type Entry struct {
	From string
	To   string

	wordStart bool
	wordEnd   bool
}

// Table is an ordered list of substitutions applied in file order.
type Table []Entry

// NewEntry builds a whole-word, case-sensitive substitution for from.
//
// Word boundaries are only enforced on edges that are word characters, so keys
// such as "  " or "c++" still match literally. Letters and digits from any
// script count as word characters.
func NewEntry(from string, to string) Entry {
	entry := Entry{From: from, To: to}
	if from == "" {
		return entry
	}
	first, _ := utf8.DecodeRuneInString(from)
	last, _ := utf8.DecodeLastRuneInString(from)
	entry.wordStart = isWordRune(first)
	entry.wordEnd = isWordRune(last)
	return entry
}

// Apply runs every substitution in order over text.
func (t Table) Apply(text string) string {
	for _, entry := range t {
		text = entry.apply(text)
	}
	return text
}

// apply replaces non-overlapping occurrences of From left to right. A
// candidate rejected at a word boundary resumes one rune later.
func (e Entry) apply(text string) string {
	if e.From == "" {
		return text
	}

	var out strings.Builder
	pos := 0
	for {
		idx := strings.Index(text[pos:], e.From)
		if idx < 0 {
			break
		}
		start := pos + idx
		end := start + len(e.From)

		if e.bounded(text, start, end) {
			out.WriteString(text[pos:start])
			out.WriteString(e.To)
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		out.WriteString(text[pos : start+size])
		pos = start + size
	}
	if pos == 0 {
		return text
	}
	out.WriteString(text[pos:])
	return out.String()
}

func (e Entry) bounded(text string, start int, end int) bool {
	if e.wordStart && start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if e.wordEnd && end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

// ParseTable decodes a flat JSON object of string pairs and keeps key order.
func ParseTable(r io.Reader) (Table, error) {
	decoder := json.NewDecoder(r)

	tok, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("read corrections: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("corrections must be a JSON object")
	}

	table := make(Table, 0)
	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("read corrections key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected corrections key %v", keyTok)
		}

		var value string
		if err := decoder.Decode(&value); err != nil {
			return nil, fmt.Errorf("corrections value for %q: %w", key, err)
		}
		if key == "" {
			continue
		}
		table = append(table, NewEntry(key, value))
	}

	if _, err := decoder.Token(); err != nil {
		return nil, fmt.Errorf("read corrections: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("corrections must contain a single JSON object")
	}
	return table, nil
}

// EnsureFile writes the default corrections file when path does not exist.
// It reports whether a file was created.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat corrections %q: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create corrections dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(DefaultCorrections), 0o644); err != nil {
		return false, fmt.Errorf("write default corrections %q: %w", path, err)
	}
	return true, nil
}

// LoadTable reads path, creating it with defaults first when missing.
//
// A malformed file is logged and yields the default table so dictation keeps working.
func LoadTable(path string, logger *slog.Logger) (Table, error) {
	created, err := EnsureFile(path)
	if err != nil {
		return nil, err
	}
	if created && logger != nil {
		logger.Info("created default corrections file", "path", path)
	}

	table, err := readTable(path)
	var parseErr *malformedError
	switch {
	case errors.As(err, &parseErr):
		if logger != nil {
			logger.Warn("corrections file is malformed; using defaults", "path", path, "error", err.Error())
		}
		return DefaultTable(), nil
	case err != nil:
		return nil, err
	}
	return table, nil
}

// DefaultTable returns the table written by EnsureFile.
func DefaultTable() Table {
	table, err := ParseTable(strings.NewReader(DefaultCorrections))
	if err != nil {
		panic(fmt.Sprintf("default corrections: %v", err))
	}
	return table
}

type malformedError struct {
	path string
	err  error
}

func (e *malformedError) Error() string {
	return fmt.Sprintf("parse corrections %q: %v", e.path, e.err)
}

func (e *malformedError) Unwrap() error {
	return e.err
}

func readTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corrections %q: %w", path, err)
	}
	defer f.Close()

	table, err := ParseTable(f)
	if err != nil {
		return nil, &malformedError{path: path, err: err}
	}
	return table, nil
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
