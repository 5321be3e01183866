package eventlog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/david-sim0niants/audio-eq/internal/log"
)

// rawEvent is the wire shape of an Event before its property bag is
// flattened to strings.
type rawEvent struct {
	Op    Op     `json:"op" yaml:"op"`
	ID    uint32 `json:"id" yaml:"id"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Props any    `json:"props,omitempty" yaml:"props,omitempty"`
}

// UnmarshalJSON decodes an event, keeping every scalar property as its
// string form. Keys holding objects, arrays or null are dropped so that only
// they fall back to their defaults.
func (e *Event) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw rawEvent
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*e = raw.event()
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (e *Event) UnmarshalYAML(value *yaml.Node) error {
	var raw rawEvent
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*e = raw.event()
	return nil
}

func (r rawEvent) event() Event {
	return Event{Op: r.Op, ID: r.ID, Type: r.Type, Props: flattenProps(r.ID, r.Props)}
}

func flattenProps(id uint32, bag any) map[string]string {
	var entries map[string]any
	switch m := bag.(type) {
	case nil:
		return nil
	case map[string]any:
		entries = m
	case map[any]any:
		entries = make(map[string]any, len(m))
		for k, v := range m {
			entries[fmt.Sprint(k)] = v
		}
	default:
		log.Debug(log.CatEventLog, "Ignoring non-mapping props", "id", id)
		return nil
	}

	props := make(map[string]string, len(entries))
	for k, v := range entries {
		switch v := v.(type) {
		case string:
			props[k] = v
		case json.Number, bool, int, int64, uint64, float64:
			props[k] = fmt.Sprint(v)
		default:
			log.Debug(log.CatEventLog, "Ignoring non-scalar prop", "id", id, "key", k)
		}
	}
	return props
}
