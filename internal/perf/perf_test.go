package perf

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func dur(d time.Duration) *time.Duration { return &d }

func TestRecordRowFormatsAllColumns(t *testing.T) {
	t.Parallel()

	rec := Record{
		Timestamp:     time.Date(2025, 3, 4, 5, 6, 7, 123456000, time.UTC),
		Model:         "turbo",
		Transcription: 1500 * time.Millisecond,
		TextLength:    20,
		AudioDuration: 3 * time.Second,
		Enhancement:   dur(400 * time.Millisecond),
		PostProcess:   dur(100 * time.Millisecond),
	}

	require.Equal(t, []string{
		"2025-03-04T05:06:07.123456",
		"turbo",
		"1500.0",
		"20",
		"3000.0",
		"100.0",
		"0.667",
		"400.0",
		"100.0",
	}, rec.Row())
}

func TestRecordRowWritesNoneForAbsentStages(t *testing.T) {
	t.Parallel()

	rec := Record{Model: "tiny", Transcription: 1234567 * time.Microsecond, TextLength: 3, AudioDuration: 2 * time.Second}
	row := rec.Row()
	require.Equal(t, "1234.57", row[2])
	require.Equal(t, "411.5223", row[5])
	require.Equal(t, "0.617", row[6])
	require.Equal(t, absent, row[7])
	require.Equal(t, absent, row[8])
}

func TestRecordZeroGuards(t *testing.T) {
	t.Parallel()

	rec := Record{Transcription: time.Second}
	require.Zero(t, rec.RealtimeFactor())
	require.Zero(t, rec.TimePerChar())
	require.Equal(t, "0.0", rec.Row()[5])
	require.Equal(t, "0.0", rec.Row()[6])
}

func TestLogAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "transcription_performance.csv")
	log := NewLog(path)

	rec := Record{Timestamp: time.Now(), Model: "turbo", Transcription: time.Second, TextLength: 5, AudioDuration: 2 * time.Second}
	require.NoError(t, log.Append(rec))
	require.NoError(t, log.Append(rec))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, Header, rows[0])
	require.Equal(t, "turbo", rows[1][1])
	require.Equal(t, "timestamp,model,transcription_time_ms,text_length,audio_duration_ms,time_per_char_ms,realtime_factor,enhancement_time_ms,post_process_time_ms", strings.Join(rows[0], ","))
}

func TestLogAppendWritesHeaderForEmptyExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	require.NoError(t, NewLog(path).Append(Record{Model: "base"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "timestamp,model,"))
}
