package logtail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/nxadm/tail"
)

// Read returns at most maxLines complete lines from the end of the file at
// path, plus the byte offset just past the last complete line. maxLines <= 0
// returns every line. A missing file yields no lines and offset 0.
func Read(path string, maxLines int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	var (
		all    []string
		ring   []string
		count  int
		idx    int
		offset int64
	)
	if maxLines > 0 {
		ring = make([]string, maxLines)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// A trailing partial line is left for the follower.
				break
			}
			return nil, 0, fmt.Errorf("read log: %w", err)
		}
		offset += int64(len(line))
		text := trimEOL(line)
		if ring == nil {
			all = append(all, text)
			continue
		}
		ring[idx] = text
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}

	if ring == nil {
		return all, offset, nil
	}
	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// Options configure Follow.
type Options struct {
	// Backfill is the number of existing lines replayed before following.
	// Zero replays nothing; negative replays the whole file.
	Backfill int
	// Poll uses stat polling instead of filesystem notifications.
	Poll bool
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Follow replays the tail of path and then delivers every appended line to
// emit, newline-terminated, until ctx is cancelled. The file may not exist
// yet; it is picked up once created and reopened after rotation.
func Follow(ctx context.Context, path string, opts Options, emit func([]byte)) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	var (
		lines  []string
		offset int64
		err    error
	)
	switch {
	case opts.Backfill != 0:
		lines, offset, err = Read(path, opts.Backfill)
	default:
		_, offset, err = Read(path, 1)
	}
	if err != nil {
		return err
	}
	for _, line := range lines {
		emit([]byte(line + "\n"))
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      opts.Poll,
		Logger:    tail.DiscardingLogger,
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
	})
	if err != nil {
		return fmt.Errorf("tail %s: %w", path, err)
	}
	defer t.Cleanup()
	logger.Printf("logtail: following %s from offset %d", path, offset)

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				if err := t.Err(); err != nil {
					return fmt.Errorf("tail %s: %w", path, err)
				}
				return nil
			}
			if line.Err != nil {
				logger.Printf("logtail: %s: %v", path, line.Err)
				continue
			}
			emit([]byte(line.Text + "\n"))
		}
	}
}

func trimEOL(line string) string {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
	}
	if n > 0 && line[n-1] == '\r' {
		n--
	}
	return line[:n]
}
