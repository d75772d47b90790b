package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/five82/logdeck/internal/config"
	"github.com/five82/logdeck/internal/filter"
	"github.com/five82/logdeck/internal/record"
	"github.com/five82/logdeck/internal/view"
)

// InspectTimeout bounds a DisplayedRecords round trip to the sink.
const InspectTimeout = 2 * time.Second

// ErrSinkTimeout is returned when the sink does not answer an inspection in
// time.
var ErrSinkTimeout = errors.New("sink did not answer in time")

// Inspector is implemented by sinks that can report the rows they show.
type Inspector interface {
	Inspect(ctx context.Context) ([]record.Row, error)
}

// Controller is the control surface of a running Loop. Every method is safe to
// call from any goroutine except from inside a Sink's Send.
type Controller struct {
	loop *Loop
}

// Show attaches sink and pushes the full current view to it. A nil sink
// detaches.
func (c *Controller) Show(ctx context.Context, sink view.Sink) error {
	return c.loop.call(ctx, func() {
		c.loop.sink = sink
		if sink == nil {
			c.loop.sync.Detach()
			return
		}
		c.loop.sync.Attach(sink)
	})
}

// Clear empties the log and resets the filters.
func (c *Controller) Clear(ctx context.Context) error {
	return c.loop.call(ctx, c.loop.sync.Clear)
}

// ClearDisplay empties the log and keeps the filters.
func (c *Controller) ClearDisplay(ctx context.Context) error {
	return c.loop.call(ctx, c.loop.sync.ClearDisplay)
}

// ApplyPort moves the listener to port, closing every current connection. On
// success the port is written back to the config file. A bind failure is
// returned as *ingest.ListenError and leaves ingestion stopped.
func (c *Controller) ApplyPort(ctx context.Context, port int) error {
	var err error
	callErr := c.loop.call(ctx, func() {
		if err = c.loop.restartListener(port); err != nil {
			return
		}
		c.loop.cfg.Ingest.Port = port
		if c.loop.skipSave {
			return
		}
		if saveErr := config.Save(c.loop.configPath, c.loop.cfg); saveErr != nil {
			c.loop.logger.Printf("persist port %d: %v", port, saveErr)
		}
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// ApplyConfig applies a reloaded configuration.
func (c *Controller) ApplyConfig(ctx context.Context, cfg config.Config) error {
	return c.loop.call(ctx, func() { c.loop.applyConfig(cfg) })
}

// TogglePause freezes or resumes the view and reports whether it is now
// paused.
func (c *Controller) TogglePause(ctx context.Context) (bool, error) {
	var paused bool
	err := c.loop.call(ctx, func() { paused = c.loop.sync.TogglePause() })
	return paused, err
}

// ToggleFilterBar asks the sink to show or hide its filter inputs.
func (c *Controller) ToggleFilterBar(ctx context.Context) error {
	return c.loop.call(ctx, c.loop.sync.ToggleFilterBar)
}

// SetTheme changes the theme passthrough.
func (c *Controller) SetTheme(ctx context.Context, theme string) error {
	return c.loop.call(ctx, func() {
		c.loop.theme = theme
		c.loop.sync.SetAppearance(view.Appearance{Theme: theme, GridLines: c.loop.cfg.View.GridLines})
	})
}

// SetFilters merges patch into the current filter and re-renders.
func (c *Controller) SetFilters(ctx context.Context, patch filter.Patch) error {
	return c.loop.call(ctx, func() { c.loop.sync.SetFilters(patch) })
}

// Filters returns the current filter.
func (c *Controller) Filters(ctx context.Context) (filter.Spec, error) {
	var spec filter.Spec
	err := c.loop.call(ctx, func() { spec = c.loop.sync.Filters() })
	return spec, err
}

// DisplayedRecords returns the rows the sink shows. Sinks implementing
// Inspector are asked directly and must answer within InspectTimeout;
// otherwise the rows the core expects the sink to show are returned.
func (c *Controller) DisplayedRecords(ctx context.Context) ([]record.Row, error) {
	var (
		sink     view.Sink
		expected []record.Row
	)
	if err := c.loop.call(ctx, func() {
		sink = c.loop.sink
		expected = c.loop.sync.Displayed()
	}); err != nil {
		return nil, err
	}

	inspector, ok := sink.(Inspector)
	if !ok {
		return expected, nil
	}

	ictx, cancel := context.WithTimeout(ctx, InspectTimeout)
	defer cancel()
	rows, err := inspector.Inspect(ictx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrSinkTimeout
		}
		return nil, fmt.Errorf("inspect sink: %w", err)
	}
	return rows, nil
}

// Paused reports whether the view is frozen.
func (c *Controller) Paused(ctx context.Context) (bool, error) {
	var paused bool
	err := c.loop.call(ctx, func() { paused = c.loop.sync.Paused() })
	return paused, err
}

// Counts returns shown and total record counts.
func (c *Controller) Counts(ctx context.Context) (shown, total int, err error) {
	err = c.loop.call(ctx, func() { shown, total = c.loop.sync.Counts() })
	return shown, total, err
}

// Export returns the newest limit filtered records as text. A limit of zero
// uses the configured export limit.
func (c *Controller) Export(ctx context.Context, limit int) (string, error) {
	var text string
	err := c.loop.call(ctx, func() {
		if limit <= 0 {
			limit = c.loop.cfg.View.ExportLimit
		}
		text = c.loop.sync.Export(limit)
	})
	return text, err
}

// ExportFile writes Export(0) into the configured export directory, zstd
// compressed when configured, and returns the file path.
func (c *Controller) ExportFile(ctx context.Context) (string, error) {
	var (
		text     string
		dir      string
		compress bool
	)
	err := c.loop.call(ctx, func() {
		text = c.loop.sync.Export(c.loop.cfg.View.ExportLimit)
		dir = c.loop.cfg.View.ExportDir
		compress = c.loop.cfg.View.ExportCompress
	})
	if err != nil {
		return "", err
	}
	return writeExport(dir, compress, time.Now(), text)
}
