package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/five82/logdeck/internal/ingest"
	"github.com/five82/logdeck/internal/logtail"
)

// DefaultBackfill is how many existing lines a tailed file replays when
// logdeck starts.
const DefaultBackfill = 1000

// StartTail follows path in a background goroutine, feeding its lines to the
// loop as one pseudo-connection. backfill is passed to logtail.Follow as is:
// zero replays nothing and a negative value replays the whole file.
//
// The pseudo-connection is registered with the loop before StartTail returns,
// so listener restarts leave its partial frames alone.
func (l *Loop) StartTail(ctx context.Context, path string, backfill int) error {
	id := uuid.New()
	if err := l.call(ctx, func() { l.tails[id] = struct{}{} }); err != nil {
		return err
	}

	emit := func(ev ingest.Event) {
		select {
		case l.events <- ev:
		case <-ctx.Done():
		case <-l.stopped:
		}
	}
	go func() {
		err := logtail.Follow(ctx, path, logtail.Options{Backfill: backfill, Logger: l.logger}, func(line []byte) {
			emit(ingest.Event{ConnID: id, Kind: ingest.Data, Data: line})
		})
		if err != nil {
			l.logger.Printf("tail %s stopped: %v", path, err)
			emit(ingest.Event{ConnID: id, Kind: ingest.Failed, Err: err})
			return
		}
		emit(ingest.Event{ConnID: id, Kind: ingest.Closed})
	}()
	return nil
}
