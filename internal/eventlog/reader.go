package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const maxLineSize = 1 << 20

// Reader decodes events one at a time.
type Reader struct {
	format  Format
	scanner *bufio.Scanner
	yaml    *yaml.Decoder
	line    int
}

// NewReader returns a Reader decoding r in the given format.
func NewReader(r io.Reader, format Format) (*Reader, error) {
	switch format {
	case FormatJSONL:
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		return &Reader{format: format, scanner: scanner}, nil
	case FormatYAML:
		return &Reader{format: format, yaml: yaml.NewDecoder(r)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Next returns the next event, or io.EOF when the journal is exhausted.
func (r *Reader) Next() (Event, error) {
	if r.format == FormatYAML {
		return r.nextYAML()
	}
	return r.nextJSONL()
}

func (r *Reader) nextJSONL() (Event, error) {
	for r.scanner.Scan() {
		r.line++
		ev, ok, err := ParseLine(r.scanner.Bytes())
		if err != nil {
			return Event{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		if ok {
			return ev, nil
		}
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("read journal: %w", err)
	}
	return Event{}, io.EOF
}

func (r *Reader) nextYAML() (Event, error) {
	for {
		var doc *Event
		if err := r.yaml.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, fmt.Errorf("document %d: %w", r.line+1, err)
		}
		r.line++
		if doc == nil {
			// empty document between separators
			continue
		}
		if err := doc.Validate(); err != nil {
			return Event{}, fmt.Errorf("document %d: %w", r.line, err)
		}
		return *doc, nil
	}
}

// ParseLine decodes a single JSONL line. ok is false for blank and comment
// lines.
func ParseLine(line []byte) (ev Event, ok bool, err error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] == '#' {
		return Event{}, false, nil
	}
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, false, fmt.Errorf("decode event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, false, err
	}
	return ev, true, nil
}

// ReadAll decodes every remaining event.
func (r *Reader) ReadAll() ([]Event, error) {
	var events []Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}
