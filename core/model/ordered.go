package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Lines and Depots travel as JSON/YAML objects keyed by identifier. Go maps
// lose the document order, so both types decode the object key by key.

func decodeObject(b []byte, each func(key string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", tok)
		}
		if err := each(key, dec); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	_, err = dec.Token()
	return err
}

func encodeObject(n int, entry func(i int) (string, any)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, val := entry(i)
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

func eachMapping(node *yaml.Node, each func(key string, val *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if err := each(key, node.Content[i+1]); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// UnmarshalJSON decodes {"<line id>": [station ids...]} preserving order.
func (ls *Lines) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	var out Lines
	err := decodeObject(b, func(key string, dec *json.Decoder) error {
		var stations []int
		if err := dec.Decode(&stations); err != nil {
			return err
		}
		out = append(out, Line{ID: key, Stations: stations})
		return nil
	})
	if err != nil {
		return fmt.Errorf("lines: %w", err)
	}
	*ls = out
	return nil
}

// MarshalJSON encodes the lines as an object in their current order.
func (ls Lines) MarshalJSON() ([]byte, error) {
	return encodeObject(len(ls), func(i int) (string, any) {
		st := ls[i].Stations
		if st == nil {
			st = []int{}
		}
		return ls[i].ID, st
	})
}

// UnmarshalYAML decodes a mapping of line id to station list preserving order.
func (ls *Lines) UnmarshalYAML(node *yaml.Node) error {
	var out Lines
	err := eachMapping(node, func(key string, val *yaml.Node) error {
		var stations []int
		if err := val.Decode(&stations); err != nil {
			return err
		}
		out = append(out, Line{ID: key, Stations: stations})
		return nil
	})
	if err != nil {
		return fmt.Errorf("lines: %w", err)
	}
	*ls = out
	return nil
}

// UnmarshalJSON decodes {"<depot id>": {...}} preserving order.
func (ds *Depots) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	var out Depots
	err := decodeObject(b, func(key string, dec *json.Decoder) error {
		var d Depot
		if err := dec.Decode(&d); err != nil {
			return err
		}
		d.ID = key
		out = append(out, d)
		return nil
	})
	if err != nil {
		return fmt.Errorf("depots: %w", err)
	}
	*ds = out
	return nil
}

// MarshalJSON encodes the depots as an object in their current order.
func (ds Depots) MarshalJSON() ([]byte, error) {
	return encodeObject(len(ds), func(i int) (string, any) {
		return ds[i].ID, ds[i]
	})
}

// UnmarshalYAML decodes a mapping of depot id to depot record preserving order.
func (ds *Depots) UnmarshalYAML(node *yaml.Node) error {
	var out Depots
	err := eachMapping(node, func(key string, val *yaml.Node) error {
		var d Depot
		if err := val.Decode(&d); err != nil {
			return err
		}
		d.ID = key
		out = append(out, d)
		return nil
	})
	if err != nil {
		return fmt.Errorf("depots: %w", err)
	}
	*ds = out
	return nil
}
