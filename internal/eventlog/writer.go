package eventlog

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

// Writer appends events to a journal. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	count  int
}

// NewWriter returns a Writer encoding to w in the given format.
func NewWriter(w io.Writer, format Format) (*Writer, error) {
	if format != FormatJSONL && format != FormatYAML {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &Writer{w: w, format: format}, nil
}

// Write validates and appends ev.
func (w *Writer) Write(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var data []byte
	var err error
	switch w.format {
	case FormatYAML:
		data, err = yaml.Marshal(ev)
		if err == nil {
			data = append([]byte("---\n"), data...)
		}
	default:
		data, err = json.Marshal(ev)
		if err == nil {
			data = append(data, '\n')
		}
	}
	if err != nil {
		return fmt.Errorf("encode event %d: %w", ev.ID, err)
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("write event %d: %w", ev.ID, err)
	}
	w.count++
	return nil
}

// Count returns the number of events written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}
