package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/conform/pkg/codec"
	"github.com/aretw0/conform/pkg/domain"
)

// Source implements ports.DocumentSource using an in-memory map.
type Source struct {
	docs map[string][]byte
}

// NewSource creates a source from raw YAML or JSON documents keyed by ID.
func NewSource(data map[string]string) *Source {
	docs := make(map[string][]byte, len(data))
	for k, v := range data {
		docs[k] = []byte(v)
	}
	return &Source{docs: docs}
}

// Document decodes the document stored under id.
func (s *Source) Document(ctx context.Context, id string) (map[string]any, error) {
	raw, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	doc, err := codec.DecodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	return doc, nil
}

// Documents returns all available document IDs.
func (s *Source) Documents(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
