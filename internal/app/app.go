package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/five82/logdeck/internal/config"
	"github.com/five82/logdeck/internal/prefs"
	"github.com/five82/logdeck/internal/state"
	"github.com/five82/logdeck/internal/ui"
	"github.com/five82/logdeck/internal/view"
)

// Options configure the logdeck application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/logdeck/prefs.toml
	Port       int    // overrides the configured port when > 0
	TailFile   string // overrides the configured tail file when set
	Plain      bool   // print rows to Output instead of running the TUI
	Output     io.Writer
	Logger     *log.Logger
}

// Run boots logdeck until the context is cancelled or the UI exits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Port > 0 {
		cfg.Ingest.Port = opts.Port
	}
	if opts.TailFile != "" {
		cfg.Ingest.TailFile = opts.TailFile
	}
	cfg = cfg.Normalize()

	userPrefs, prefsErr := prefs.Load(opts.PrefsPath)

	logger := opts.Logger
	if logger == nil {
		var closeLog func()
		logger, closeLog = openLog(cfg.Log.File, opts.Plain)
		defer closeLog()
	}
	if prefsErr != nil {
		logger.Printf("prefs: %v, using defaults", prefsErr)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	status := &state.Store{}
	loop := NewLoop(cfg, LoopOptions{
		ConfigPath: opts.ConfigPath,
		Theme:      userPrefs.Theme,
		Status:     status,
		Logger:     logger,
	})
	ctrl := loop.Controller()

	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(ctx) }()

	if cfg.Ingest.TailFile != "" {
		if err := loop.StartTail(ctx, cfg.Ingest.TailFile, DefaultBackfill); err != nil {
			logger.Printf("tail %s: %v", cfg.Ingest.TailFile, err)
		}
	}

	if err := config.Watch(ctx, opts.ConfigPath, func(next config.Config, err error) {
		if err != nil {
			logger.Printf("config reload: %v", err)
			return
		}
		if opts.Port > 0 {
			next.Ingest.Port = opts.Port
		}
		if err := ctrl.ApplyConfig(ctx, next); err != nil && ctx.Err() == nil {
			logger.Printf("config reload: %v", err)
		}
	}); err != nil {
		logger.Printf("config watch disabled: %v", err)
	}

	if opts.Plain {
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		if err := ctrl.Show(ctx, view.WriterSink{W: out}); err != nil {
			return err
		}
		<-ctx.Done()
		return <-loopErr
	}

	uiErr := ui.Run(ctx, ui.Options{
		Controller:    ctrl,
		Status:        status,
		ThemeName:     userPrefs.Theme,
		HideFilterBar: userPrefs.HideFilterBar,
		PrefsPath:     opts.PrefsPath,
	})
	cancel()
	if err := <-loopErr; err != nil {
		return err
	}
	return uiErr
}

// openLog returns a logger writing to path. The TUI owns the terminal, so when
// the file cannot be opened logs are dropped unless running in plain mode.
func openLog(path string, plain bool) (*log.Logger, func()) {
	fallback := io.Discard
	if plain {
		fallback = os.Stderr
	}
	if path == "" {
		return log.New(fallback, "logdeck: ", log.LstdFlags), func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return log.New(fallback, "logdeck: ", log.LstdFlags), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return log.New(fallback, "logdeck: ", log.LstdFlags), func() {}
	}
	return log.New(f, "", log.LstdFlags), func() { _ = f.Close() }
}
