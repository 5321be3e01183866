// Package eventlog reads and writes journals of graph manager announcements.
//
// A journal is a sequence of add/remove events. JSONL journals hold one JSON
// object per line; blank lines and lines starting with '#' are skipped. YAML
// journals hold one event per document.
package eventlog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnknownOp is returned for an event whose op is neither add nor remove.
	ErrUnknownOp = errors.New("unknown event op")
	// ErrFollowUnsupported is returned when following a journal that is not JSONL.
	ErrFollowUnsupported = errors.New("only jsonl journals can be followed")
	// ErrUnknownFormat is returned for a path whose extension names no format.
	ErrUnknownFormat = errors.New("unknown journal format")
)

// Op is the kind of announcement.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Event is one announcement. Type and Props are only meaningful for adds.
type Event struct {
	Op    Op                `json:"op" yaml:"op"`
	ID    uint32            `json:"id" yaml:"id"`
	Type  string            `json:"type,omitempty" yaml:"type,omitempty"`
	Props map[string]string `json:"props,omitempty" yaml:"props,omitempty"`
}

// Validate checks the op.
func (e Event) Validate() error {
	switch e.Op {
	case OpAdd, OpRemove:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, e.Op)
	}
}

// Format is a journal encoding.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}
