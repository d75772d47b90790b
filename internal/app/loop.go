package app

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/five82/logdeck/internal/config"
	"github.com/five82/logdeck/internal/frame"
	"github.com/five82/logdeck/internal/ingest"
	"github.com/five82/logdeck/internal/state"
	"github.com/five82/logdeck/internal/view"
)

const (
	eventBuffer   = 256
	commandBuffer = 16
)

// ErrLoopStopped is returned by controller calls made after the loop exited.
var ErrLoopStopped = errors.New("event loop stopped")

// LoopOptions configure a Loop.
type LoopOptions struct {
	// ConfigPath is where ApplyPort persists a new port. Empty uses the
	// default location.
	ConfigPath string
	// Theme seeds the appearance passthrough.
	Theme string
	// Status receives listener and decode counters. Nil allocates one.
	Status *state.Store
	// Logger defaults to log.Default().
	Logger *log.Logger
	// ListenHost restricts the listener to one interface.
	ListenHost string
	// SkipSave disables config persistence, for tests.
	SkipSave bool
}

// Loop is the single goroutine that owns the view core. Ingestion events and
// controller commands are handled one at a time, each to completion.
type Loop struct {
	sync     *view.Synchronizer
	sink     view.Sink
	listener *ingest.Listener
	status   *state.Store
	decoders map[uuid.UUID]*frame.Decoder
	// tails holds the IDs of file tail pseudo-connections; the listener owns
	// every other decoder.
	tails map[uuid.UUID]struct{}

	cfg        config.Config
	configPath string
	skipSave   bool
	theme      string

	events   chan ingest.Event
	commands chan func()
	stopped  chan struct{}

	logger *log.Logger
}

// NewLoop builds a loop for cfg. The listener is created but not started.
func NewLoop(cfg config.Config, opts LoopOptions) *Loop {
	cfg = cfg.Normalize()
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	status := opts.Status
	if status == nil {
		status = &state.Store{}
	}

	events := make(chan ingest.Event, eventBuffer)
	l := &Loop{
		sync: view.New(view.Options{
			Capacity:     cfg.Store.MaxRecords,
			RelativeTime: cfg.View.RelativeTimestamps,
			TimeFormat:   cfg.View.TimestampFormat,
			Appearance:   view.Appearance{Theme: opts.Theme, GridLines: cfg.View.GridLines},
			Logger:       logger,
		}),
		listener: ingest.NewListener(events, ingest.Options{
			Host:   opts.ListenHost,
			Status: status,
			Logger: logger,
		}),
		status:     status,
		decoders:   make(map[uuid.UUID]*frame.Decoder),
		tails:      make(map[uuid.UUID]struct{}),
		cfg:        cfg,
		configPath: opts.ConfigPath,
		skipSave:   opts.SkipSave,
		theme:      opts.Theme,
		events:     events,
		commands:   make(chan func(), commandBuffer),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
	return l
}

// Events is where ingestion sources deliver bytes. Sources other than the
// listener pick their own ConnID.
func (l *Loop) Events() chan<- ingest.Event {
	return l.events
}

// Status returns the ingestion status store.
func (l *Loop) Status() *state.Store {
	return l.status
}

// ListenPort returns the port the listener is bound to, or last tried.
func (l *Loop) ListenPort() int {
	return l.listener.Port()
}

// Controller returns the control surface bound to this loop.
func (l *Loop) Controller() *Controller {
	return &Controller{loop: l}
}

// Run starts the listener on the configured port and processes events until
// ctx is cancelled. A bind failure is recorded in the status store and does
// not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	defer l.listener.Stop()

	if err := l.listener.Start(l.cfg.Ingest.Port); err != nil {
		l.logger.Printf("ingestion stopped until a new port is applied: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-l.events:
			l.handleEvent(ev)
		case cmd := <-l.commands:
			cmd()
		}
	}
}

func (l *Loop) handleEvent(ev ingest.Event) {
	switch ev.Kind {
	case ingest.Data:
		dec, ok := l.decoders[ev.ConnID]
		if !ok {
			dec = &frame.Decoder{}
			l.decoders[ev.ConnID] = dec
		}
		records, errs := dec.Feed(ev.Data)
		for _, err := range errs {
			l.status.DecodeFailed(err)
			l.logger.Printf("connection %s: %v", ev.ConnID, err)
		}
		for _, r := range records {
			l.sync.Ingest(r)
		}
	case ingest.Closed:
		l.dropDecoder(ev.ConnID)
	case ingest.Failed:
		l.logger.Printf("connection %s: %v", ev.ConnID, ev.Err)
		l.dropDecoder(ev.ConnID)
	}
}

func (l *Loop) dropDecoder(id uuid.UUID) {
	if dec, ok := l.decoders[id]; ok && dec.Buffered() > 0 {
		l.logger.Printf("connection %s closed with %d undecoded bytes", id, dec.Buffered())
	}
	delete(l.decoders, id)
	delete(l.tails, id)
}

// drainEvents handles events already queued without waiting for more.
func (l *Loop) drainEvents() {
	for {
		select {
		case ev := <-l.events:
			l.handleEvent(ev)
		default:
			return
		}
	}
}

// restartListener moves ingestion to port, dropping every TCP connection and
// its partial frames. File tail decoders are kept.
func (l *Loop) restartListener(port int) error {
	l.listener.Stop()
	l.drainEvents()
	for id := range l.decoders {
		if _, tail := l.tails[id]; !tail {
			delete(l.decoders, id)
		}
	}
	return l.listener.Start(port)
}

// applyConfig brings the running core in line with cfg.
func (l *Loop) applyConfig(cfg config.Config) {
	cfg = cfg.Normalize()
	prev := l.cfg
	l.cfg = cfg

	if cfg.Store.MaxRecords != prev.Store.MaxRecords {
		l.sync.SetCapacity(cfg.Store.MaxRecords)
	}
	if cfg.View.RelativeTimestamps != prev.View.RelativeTimestamps || cfg.View.TimestampFormat != prev.View.TimestampFormat {
		l.sync.SetTimeMode(cfg.View.RelativeTimestamps, cfg.View.TimestampFormat)
	}
	if cfg.View.GridLines != prev.View.GridLines {
		l.sync.SetAppearance(view.Appearance{Theme: l.theme, GridLines: cfg.View.GridLines})
	}
	if cfg.Ingest.Port != prev.Ingest.Port || !l.listener.Running() {
		if err := l.restartListener(cfg.Ingest.Port); err != nil {
			l.logger.Printf("config reload: %v", err)
		}
	}
	if cfg.Ingest.TailFile != prev.Ingest.TailFile {
		l.logger.Printf("config reload: tail_file change takes effect on restart")
	}
}

// call runs fn on the loop goroutine and waits for it.
func (l *Loop) call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case l.commands <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
}
