package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/david-sim0niants/audio-eq/internal/filter/lowpass"
	"github.com/david-sim0niants/audio-eq/internal/log"
)

// SaveCutoff updates filter.cutoff_hz in the config file, creating the file
// or the filter section if needed. Comments and the rest of the document are
// preserved by editing the yaml.Node tree.
func SaveCutoff(configPath string, hz float32) error {
	if err := lowpass.ValidateCutoff(hz); err != nil {
		return err
	}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode}}
	}
	if doc.Kind != yaml.DocumentNode || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("parsing config: top level is not a mapping")
	}

	filter := mappingValue(doc.Content[0], "filter")
	if filter.Kind != yaml.MappingNode {
		// A scalar or null filter section is replaced wholesale.
		*filter = yaml.Node{Kind: yaml.MappingNode}
	}
	cutoff := mappingValue(filter, "cutoff_hz")
	*cutoff = yaml.Node{
		Kind:        yaml.ScalarNode,
		Value:       strconv.FormatFloat(float64(hz), 'f', -1, 32),
		LineComment: cutoff.LineComment,
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	if err := writeAtomic(configPath, buf.Bytes()); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to save cutoff", err, "path", configPath)
		return err
	}
	log.Debug(log.CatConfig, "Saved cutoff", "path", configPath, "hz", hz)
	return nil
}

// mappingValue returns the value node for key in m, appending an empty
// entry when the key is absent.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i < len(m.Content)-1; i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	return value
}

// writeAtomic writes data to a temp file beside path and renames it over path.
// An existing file keeps its permission bits; a new one is created 0600.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".audioeq.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if info, err := os.Stat(path); err == nil {
		if err := temp.Chmod(info.Mode().Perm()); err != nil {
			_ = temp.Close()
			_ = os.Remove(tempPath)
			return fmt.Errorf("copying file mode: %w", err)
		}
	}

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
