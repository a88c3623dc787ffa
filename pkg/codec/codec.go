// Package codec reads and writes schemas and documents as YAML or JSON.
//
// Schemas decode into schema.Ordered so that field order survives the round
// trip; documents decode into map[string]any. JSON input goes through the
// YAML decoder, which accepts it as a subset. Unquoted YAML timestamps
// (2024-01-31, 2024-01-31T10:00:00Z) decode to time.Time so they satisfy
// date fields; quoted ones stay strings.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/conform/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for file extensions other than .yaml,
// .yml and .json.
var ErrUnsupportedFormat = errors.New("unsupported format")

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// DecodeSchema parses a YAML or JSON mapping into ordered schema data.
func DecodeSchema(data []byte) (schema.Ordered, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if root.Kind == 0 {
		return schema.Ordered{}, nil
	}

	v, err := fromNode(&root, false)
	if err != nil {
		return nil, err
	}
	o, ok := v.(schema.Ordered)
	if !ok {
		return nil, fmt.Errorf("schema must be a mapping, got %T", v)
	}
	return o, nil
}

// DecodeDocument parses a YAML or JSON mapping into a document.
func DecodeDocument(data []byte) (map[string]any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if root.Kind == 0 || len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	v, err := fromNode(&root, true)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	switch doc := v.(type) {
	case map[string]any:
		return doc, nil
	case nil:
		return map[string]any{}, nil
	}
	return nil, fmt.Errorf("failed to parse document: must be a mapping, got %T", v)
}

// EncodeSchema renders schema data in the given format. Parsed nodes are
// marshalled back to data first; Go callbacks cannot be encoded.
func EncodeSchema(v any, format Format) ([]byte, error) {
	if n, ok := v.(schema.Node); ok {
		v = schema.Marshal(n)
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema: %w", err)
		}
		return data, nil
	case FormatYAML:
		node, err := toNode(v)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return nil, fmt.Errorf("failed to encode schema: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// EncodeDocument renders a document in the given format.
func EncodeDocument(doc map[string]any, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// fromNode converts a YAML tree to plain data. Mappings become
// schema.Ordered, or map[string]any when plain is set.
func fromNode(n *yaml.Node, plain bool) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0], plain)
	case yaml.AliasNode:
		return fromNode(n.Alias, plain)
	case yaml.MappingNode:
		if plain {
			return mapFromNode(n)
		}
		out := make(schema.Ordered, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Tag == "!!merge" {
				merged, err := fromNode(valNode, plain)
				if err != nil {
					return nil, err
				}
				if m, ok := merged.(schema.Ordered); ok {
					out = append(out, m...)
				}
				continue
			}
			val, err := fromNode(valNode, plain)
			if err != nil {
				return nil, err
			}
			out = append(out, schema.Entry{Key: keyNode.Value, Value: val})
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c, plain)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		// yaml.v3 hands timestamps to an any target as strings.
		if n.ShortTag() == "!!timestamp" {
			var ts time.Time
			if err := n.Decode(&ts); err == nil {
				return ts, nil
			}
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unexpected yaml node kind %d", n.Line, n.Kind)
}

// mapFromNode builds a document mapping. Keys written out explicitly win over
// keys pulled in with a merge (<<).
func mapFromNode(n *yaml.Node) (map[string]any, error) {
	out := make(map[string]any, len(n.Content)/2)
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		if keyNode.Tag == "!!merge" {
			merges = append(merges, valNode)
			continue
		}
		val, err := fromNode(valNode, true)
		if err != nil {
			return nil, err
		}
		out[keyNode.Value] = val
	}
	for _, m := range merges {
		merged, err := fromNode(m, true)
		if err != nil {
			return nil, err
		}
		sources := []any{merged}
		if list, ok := merged.([]any); ok {
			sources = list
		}
		for _, src := range sources {
			sm, ok := src.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("line %d: merge value must be a mapping", m.Line)
			}
			for k, v := range sm {
				if _, exists := out[k]; !exists {
					out[k] = v
				}
			}
		}
	}
	return out, nil
}

func toNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case schema.Ordered:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, e := range t {
			val, err := toNode(e.Value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", e.Key, err)
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: e.Key}, val)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, item := range t {
			c, err := toNode(item)
			if err != nil {
				return nil, err
			}
			if c.Kind != yaml.ScalarNode {
				n.Style = 0
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	}

	if v != nil && schema.TypeNameOf(v) == schema.TypeFunction {
		return nil, fmt.Errorf("cannot encode callback %T", v)
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return n, nil
}
