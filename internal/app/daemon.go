package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/wisp/internal/asr"
	"github.com/rbright/wisp/internal/audio"
	"github.com/rbright/wisp/internal/config"
	"github.com/rbright/wisp/internal/console"
	"github.com/rbright/wisp/internal/enhance"
	"github.com/rbright/wisp/internal/events"
	"github.com/rbright/wisp/internal/hotkey"
	"github.com/rbright/wisp/internal/httpclient"
	"github.com/rbright/wisp/internal/hypr"
	"github.com/rbright/wisp/internal/indicator"
	"github.com/rbright/wisp/internal/ipc"
	"github.com/rbright/wisp/internal/output"
	"github.com/rbright/wisp/internal/perf"
	"github.com/rbright/wisp/internal/pipeline"
	"github.com/rbright/wisp/internal/session"
	"github.com/rbright/wisp/internal/transcript"
)

// commandRun starts the daemon and blocks until ctx ends. Any failure before
// the ready line is a startup failure.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	out := console.New(r.Stdout, cfg.Silent)
	fail := func(step string, err error) int {
		fmt.Fprintf(r.Stderr, "error: %s: %v\n", step, err)
		logger.Error("startup failed", "step", step, "error", err.Error())
		return exitFailure
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return fail("control socket", err)
	}
	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{ProbeTimeout: 180 * time.Millisecond, Retries: 8})
	if err != nil {
		return fail("control socket", err)
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	engine, err := asr.New(cfg.ASR, logger)
	if err != nil {
		return fail("speech engine", err)
	}
	out.Info("Loading %s model %q...", engine.Name(), engine.Model())
	if err := engine.Load(ctx); err != nil {
		return fail("speech engine", err)
	}

	enhancer, backend := enhance.Select(ctx, cfg.Enhance, logger)
	if (cfg.Enhance.Ollama.Enable || cfg.Enhance.Azure.Enable) && backend == enhance.BackendNone {
		out.Warn("LLM enhancement unavailable; continuing without it (see log)")
	} else if backend != enhance.BackendNone {
		out.Info("LLM enhancement: %s", backend)
	}

	store, err := transcript.OpenStore(cfg.Corrections.Path, logger)
	if err != nil {
		return fail("corrections", err)
	}
	if cfg.Corrections.Watch {
		if err := store.Watch(ctx); err != nil {
			out.Warn("corrections will not reload automatically: %v", err)
		}
	}
	corrector := transcript.Corrector{Tables: store.Table, Logger: logger}
	if cfg.Grammar.Enable {
		timeout := httpclient.Millis(cfg.Grammar.TimeoutMS, 3*time.Second)
		corrector.Grammar = transcript.NewLanguageTool(cfg.Grammar.URL, cfg.Grammar.Language, timeout)
	}

	injector, err := output.New(cfg.Output, logger)
	if err != nil {
		return fail("output", err)
	}

	runner := &pipeline.Runner{
		Transcriber: engine,
		Enhancer:    enhancer,
		Corrector:   corrector,
		Injector:    injector,
		Model:       engine.Model(),
		Logger:      logger,
		OnStage:     out.Stage,
	}
	if cfg.Performance.Enable {
		perfLog := perf.NewLog(cfg.Performance.Path)
		runner.Perf = perfLog
		out.Info("Logging performance to %s", perfLog.Path())
	}
	if cfg.Debug.AudioDump {
		runner.Dump = pipeline.DebugAudioDumper(logger)
	}

	var notifier session.Indicator
	if cfg.Indicator.Enable {
		n, err := indicator.New(cfg.Indicator, logger)
		if err != nil {
			return fail("indicator", err)
		}
		notifier = n
	}

	source, err := newHotkeySource(cfg.Hotkey, logger)
	if err != nil {
		return fail("hotkey", err)
	}

	mic := newAudioSource(cfg.Audio, logger)
	recorder := audio.NewRecorder(mic, logger)
	if err := recorder.Start(ctx); err != nil {
		return fail("audio", err)
	}
	if pulseMic, ok := mic.(*audio.PulseSource); ok {
		dev := pulseMic.Device()
		out.Info("Microphone: %s", dev.Description)
		logger.Info("audio device selected", "id", dev.ID, "description", dev.Description)
	}
	defer func() {
		if err := recorder.Stop(); err != nil {
			logger.Warn("stop audio failed", "error", err.Error())
		}
	}()

	observers := []session.Observer{out}
	var hub *events.Hub
	if cfg.Events.Enable {
		hub = events.NewHub(logger)
		observers = append(observers, hub)
	}
	if cfg.Hotkey.Backend == "hypr" {
		observers = append(observers, hotkey.SubmapObserver{Controller: hypr.CLIController{}, Logger: logger})
	}
	controller := session.NewController(logger, recorder, runner, notifier, observers...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return controller.Run(gctx) })
	g.Go(func() error { return ipc.Serve(gctx, listener, controller) })

	presses := make(chan hotkey.Event)
	g.Go(func() error {
		if err := source.Run(gctx, presses); err != nil {
			out.Warn("hotkeys unavailable: %v; use `wisp toggle` instead", err)
			logger.Warn("hotkey source stopped", "error", err.Error())
		}
		return nil
	})
	g.Go(func() error {
		forwardPresses(gctx, presses, controller, logger)
		return nil
	})

	if hub != nil {
		g.Go(func() error {
			if err := hub.Serve(gctx, cfg.Events.Addr); err != nil {
				out.Warn("events server: %v", err)
				logger.Warn("events server stopped", "error", err.Error())
			}
			return nil
		})
	}

	out.Ready(engine.Model(), cfg.Hotkey.Toggle)
	logger.Info("daemon ready",
		"socket", socketPath,
		"asr", engine.Name(),
		"model", engine.Model(),
		"enhance", string(backend),
		"output", cfg.Output.Backend,
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		out.Error("%v", err)
		logger.Error("daemon stopped", "error", err.Error())
		return exitFailure
	}
	logger.Info("daemon stopped")
	return exitOK
}

func newAudioSource(cfg config.AudioConfig, logger *slog.Logger) audio.Source {
	if cfg.Backend == "portaudio" {
		return audio.NewPortAudioSource(0)
	}
	return audio.NewPulseSource(cfg.Input, cfg.Fallback, logger)
}

// newHotkeySource points compositor binds back at this binary.
func newHotkeySource(cfg config.HotkeyConfig, logger *slog.Logger) (hotkey.Source, error) {
	exe, err := os.Executable()
	if err != nil {
		exe = "wisp"
	}
	source, err := hotkey.New(cfg, exe, logger)
	if err != nil {
		return nil, fmt.Errorf("build hotkey source: %w", err)
	}
	return source, nil
}

// forwardPresses maps key presses onto controller actions until ctx ends.
func forwardPresses(ctx context.Context, presses <-chan hotkey.Event, controller *session.Controller, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-presses:
			action := session.ActionToggle
			if ev.Kind == hotkey.Cancel {
				action = session.ActionCancel
			}
			if !controller.Submit(action) && logger != nil {
				logger.Debug("dropping key press; action queue full", "action", action.String())
			}
		}
	}
}
