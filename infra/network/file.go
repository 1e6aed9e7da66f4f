package network

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/metroplan/core/model"
)

// LoadFile reads a network from a .yaml, .yml or .json file. Lines and
// depots keep their document order.
func LoadFile(path string) (model.Network, error) {
	var n model.Network
	data, err := os.ReadFile(path)
	if err != nil {
		return n, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &n)
	case ".json":
		err = json.Unmarshal(data, &n)
	default:
		return n, fmt.Errorf("unsupported network format: %s", ext)
	}
	if err != nil {
		return n, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := n.Validate(); err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// WriteFile stores the network as YAML or JSON depending on the extension.
func WriteFile(path string, n model.Network) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(n, "", "  ")
	case ".yaml", ".yml":
		data, err = marshalYAML(n)
	default:
		return fmt.Errorf("unsupported network format: %s", ext)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// marshalYAML goes through JSON so lines and depots keep their order.
func marshalYAML(n model.Network) ([]byte, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	return yaml.Marshal(&node)
}

// FileSource reads the network file on every call so edits are picked up
// without a restart.
type FileSource string

// Network loads the file.
func (f FileSource) Network(context.Context) (model.Network, error) {
	return LoadFile(string(f))
}
