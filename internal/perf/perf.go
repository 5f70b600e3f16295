// Package perf appends per-cycle timing rows to a CSV performance log.
package perf

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Header is the fixed CSV column order.
var Header = []string{
	"timestamp",
	"model",
	"transcription_time_ms",
	"text_length",
	"audio_duration_ms",
	"time_per_char_ms",
	"realtime_factor",
	"enhancement_time_ms",
	"post_process_time_ms",
}

const absent = "None"

// Record is one completed pipeline cycle. Nil stage durations mean the stage did not run.
type Record struct {
	Timestamp     time.Time
	Model         string
	Transcription time.Duration
	TextLength    int
	AudioDuration time.Duration
	Enhancement   *time.Duration
	PostProcess   *time.Duration
}

// Total is transcription plus every stage that ran.
func (r Record) Total() time.Duration {
	total := r.Transcription
	if r.Enhancement != nil {
		total += *r.Enhancement
	}
	if r.PostProcess != nil {
		total += *r.PostProcess
	}
	return total
}

// RealtimeFactor is total processing time over audio duration, 0 for silent clips.
func (r Record) RealtimeFactor() float64 {
	if r.AudioDuration <= 0 {
		return 0
	}
	return r.Total().Seconds() / r.AudioDuration.Seconds()
}

// TimePerChar is total processing time per output character, 0 for empty text.
func (r Record) TimePerChar() time.Duration {
	if r.TextLength <= 0 {
		return 0
	}
	return r.Total() / time.Duration(r.TextLength)
}

// Row renders the record in Header order.
func (r Record) Row() []string {
	return []string{
		r.Timestamp.Format("2006-01-02T15:04:05.000000"),
		r.Model,
		formatMillis(r.Transcription, 2),
		strconv.Itoa(r.TextLength),
		formatMillis(r.AudioDuration, 2),
		formatMillis(r.TimePerChar(), 4),
		formatRounded(r.RealtimeFactor(), 3),
		formatOptionalMillis(r.Enhancement),
		formatOptionalMillis(r.PostProcess),
	}
}

// Log appends records to one CSV file, writing the header when the file is new or empty.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog targets path; nothing is created until the first Append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the CSV location.
func (l *Log) Path() string {
	return l.path
}

// Append writes one row.
func (l *Log) Append(record Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create performance log dir: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open performance log %q: %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat performance log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("write performance header: %w", err)
		}
	}
	if err := w.Write(record.Row()); err != nil {
		return fmt.Errorf("write performance row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush performance log: %w", err)
	}
	return nil
}

func formatMillis(d time.Duration, places int) string {
	return formatRounded(float64(d)/float64(time.Millisecond), places)
}

func formatOptionalMillis(d *time.Duration) string {
	if d == nil {
		return absent
	}
	return formatMillis(*d, 2)
}

// formatRounded rounds half away from zero and always keeps one decimal, e.g. "12.0".
func formatRounded(v float64, places int) string {
	scale := math.Pow(10, float64(places))
	rounded := math.Round(v*scale) / scale
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
