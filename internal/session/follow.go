package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/david-sim0niants/audio-eq/internal/eventlog"
	"github.com/david-sim0niants/audio-eq/internal/log"
	"github.com/david-sim0niants/audio-eq/internal/watcher"
)

// Follow applies the JSONL journal at path to l, then keeps applying lines
// appended to it until ctx is cancelled. Only complete lines are applied; a
// trailing partial line waits for its newline. Malformed lines are logged and
// skipped. A journal truncated below the read position is read again from
// the start.
func Follow(ctx context.Context, path string, l Listener, debounce time.Duration) error {
	format, err := eventlog.FormatFromPath(path)
	if err != nil {
		return err
	}
	if format != eventlog.FormatJSONL {
		return fmt.Errorf("%w: %s", eventlog.ErrFollowUnsupported, path)
	}

	t, err := openTail(path)
	if err != nil {
		return err
	}
	defer t.close()

	w, err := watcher.New(watcher.Config{Path: path, Debounce: debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	// Read after the watch is in place so no append is missed.
	if err := t.drain(l); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug(log.CatSession, "follow stopped", "path", path, "offset", t.offset)
			return nil
		case <-changes:
			if err := t.drain(l); err != nil {
				return err
			}
		}
	}
}

type tail struct {
	path    string
	file    *os.File
	offset  int64
	partial []byte
}

func openTail(path string) (*tail, error) {
	f, err := os.Open(path) // #nosec G304 -- journal path is user supplied on purpose
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &tail{path: path, file: f}, nil
}

func (t *tail) close() {
	_ = t.file.Close()
}

// drain applies every complete line written since the last call.
func (t *tail) drain(l Listener) error {
	info, err := t.file.Stat()
	if err != nil {
		return fmt.Errorf("stat journal: %w", err)
	}
	if info.Size() < t.offset {
		log.Warn(log.CatSession, "journal truncated, rereading", "path", t.path, "size", info.Size(), "offset", t.offset)
		t.offset = 0
		t.partial = nil
	}

	data, err := io.ReadAll(io.NewSectionReader(t.file, t.offset, info.Size()-t.offset))
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	t.offset += int64(len(data))

	data = append(t.partial, data...)
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		t.partial = data
		return nil
	}
	t.partial = append([]byte(nil), data[end+1:]...)

	for _, line := range bytes.Split(data[:end], []byte{'\n'}) {
		ev, ok, err := eventlog.ParseLine(line)
		if err != nil {
			log.ErrorErr(log.CatSession, "skipping malformed journal line", err, "path", t.path)
			continue
		}
		if ok {
			Apply(l, ev)
		}
	}
	return nil
}
