// Package pipeline runs one transcribe -> enhance -> correct -> inject cycle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rbright/wisp/internal/asr"
	"github.com/rbright/wisp/internal/audio"
	"github.com/rbright/wisp/internal/enhance"
	"github.com/rbright/wisp/internal/perf"
)

var (
	// ErrNoAudio indicates the armed window captured no samples.
	ErrNoAudio = errors.New("no audio recorded")
	// ErrEmptyTranscript indicates the engine recognized no speech.
	ErrEmptyTranscript = errors.New("no speech recognized")
	// ErrEmptyText indicates corrections reduced the text to nothing.
	ErrEmptyText = errors.New("no text left after post-processing")
)

// IsShortCircuit reports whether err ends a cycle early without being a failure.
func IsShortCircuit(err error) bool {
	return errors.Is(err, ErrNoAudio) || errors.Is(err, ErrEmptyTranscript) || errors.Is(err, ErrEmptyText)
}

// StageName identifies one timed pipeline step.
type StageName string

const (
	StageTranscription StageName = "transcription"
	StageEnhancement   StageName = "enhancement"
	StageCorrection    StageName = "correction"
)

// Stage is the output and timing of one step. Ran is false for skipped steps.
type Stage struct {
	Name    StageName
	Text    string
	Elapsed time.Duration
	Ran     bool
}

// Outcome summarizes one cycle, including partially completed ones.
type Outcome struct {
	AudioDuration time.Duration
	Transcription Stage
	Enhancement   Stage
	Correction    Stage
	Text          string
	Injected      bool
}

// Corrector applies deterministic post-processing.
type Corrector interface {
	Correct(ctx context.Context, text string) string
}

// Injector delivers final text to the focused window.
type Injector interface {
	Inject(ctx context.Context, text string) error
}

// PerfLog receives one record per cycle that reached post-processing.
type PerfLog interface {
	Append(perf.Record) error
}

// Runner holds the collaborators for sequential cycles. Enhancer, Perf,
// OnStage, and Dump are optional.
type Runner struct {
	Transcriber asr.Transcriber
	Enhancer    enhance.Enhancer
	Corrector   Corrector
	Injector    Injector
	Perf        PerfLog
	Model       string
	Logger      *slog.Logger

	// OnStage observes each completed stage, e.g. for console lines.
	OnStage func(Stage)
	// Dump receives every non-empty clip before transcription.
	Dump func(audio.Clip)

	now func() time.Time
}

// Process runs the cycle for clip. Short-circuits return ErrNoAudio,
// ErrEmptyTranscript, or ErrEmptyText.
func (r *Runner) Process(ctx context.Context, clip audio.Clip) (Outcome, error) {
	outcome := Outcome{AudioDuration: clip.Duration()}
	if clip.Empty() {
		return outcome, ErrNoAudio
	}
	if r.Dump != nil {
		r.Dump(clip)
	}

	start := r.clock()
	text, err := r.Transcriber.Transcribe(ctx, clip)
	outcome.Transcription = Stage{Name: StageTranscription, Text: text, Elapsed: r.since(start), Ran: true}
	if err != nil {
		return outcome, fmt.Errorf("transcribe: %w", err)
	}
	r.report(outcome.Transcription)
	if strings.TrimSpace(text) == "" {
		return outcome, ErrEmptyTranscript
	}

	if r.Enhancer != nil {
		start = r.clock()
		text = r.Enhancer.Enhance(ctx, text)
		outcome.Enhancement = Stage{Name: StageEnhancement, Text: text, Elapsed: r.since(start), Ran: true}
		r.report(outcome.Enhancement)
	}

	start = r.clock()
	if r.Corrector != nil {
		text = r.Corrector.Correct(ctx, text)
	}
	outcome.Correction = Stage{Name: StageCorrection, Text: text, Elapsed: r.since(start), Ran: true}
	r.report(outcome.Correction)
	outcome.Text = text

	r.recordPerf(outcome)

	if text == "" {
		return outcome, ErrEmptyText
	}

	if err := r.Injector.Inject(ctx, text); err != nil {
		return outcome, fmt.Errorf("inject: %w", err)
	}
	outcome.Injected = true
	return outcome, nil
}

func (r *Runner) recordPerf(outcome Outcome) {
	if r.Perf == nil {
		return
	}

	record := perf.Record{
		Timestamp:     r.clock(),
		Model:         r.Model,
		Transcription: outcome.Transcription.Elapsed,
		TextLength:    utf8.RuneCountInString(outcome.Text),
		AudioDuration: outcome.AudioDuration,
	}
	if outcome.Enhancement.Ran {
		elapsed := outcome.Enhancement.Elapsed
		record.Enhancement = &elapsed
	}
	if outcome.Correction.Ran {
		elapsed := outcome.Correction.Elapsed
		record.PostProcess = &elapsed
	}

	if err := r.Perf.Append(record); err != nil && r.Logger != nil {
		r.Logger.Warn("performance log append failed", "error", err.Error())
	}
}

func (r *Runner) report(stage Stage) {
	if r.Logger != nil {
		r.Logger.Info("pipeline stage complete",
			"stage", string(stage.Name),
			"elapsed_ms", stage.Elapsed.Milliseconds(),
			"chars", utf8.RuneCountInString(stage.Text),
		)
	}
	if r.OnStage != nil {
		r.OnStage(stage)
	}
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) since(start time.Time) time.Duration {
	return r.clock().Sub(start)
}
