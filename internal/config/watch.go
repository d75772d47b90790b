package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay coalesces the burst of events editors produce for one save.
const settleDelay = 100 * time.Millisecond

// Watch reloads the config at path whenever it changes on disk and calls
// onChange with the result, until ctx is cancelled. Parse failures are
// reported through the error argument; the caller keeps its previous config.
// The containing directory is watched so rename-based saves are seen.
func Watch(ctx context.Context, path string, onChange func(Config, error)) error {
	resolved, err := ResolvePath(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(resolved)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		timer := time.NewTimer(settleDelay)
		if !timer.Stop() {
			<-timer.C
		}
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != resolved {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				timer.Reset(settleDelay)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onChange(Config{}, fmt.Errorf("watch config: %w", err))
			case <-timer.C:
				onChange(Load(resolved))
			}
		}
	}()
	return nil
}
