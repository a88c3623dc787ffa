// Package loam exposes documents kept in a loam repository (Markdown
// frontmatter, YAML or JSON files) as a ports.DocumentSource.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/loam"
)

// Metadata is the decoded frontmatter or data of a loam document.
type Metadata = map[string]any

// Source adapts a loam repository to ports.DocumentSource. Document IDs are
// file paths without their extension.
type Source struct {
	Repo *loam.TypedRepository[Metadata]

	contentKey string
}

// Option configures a Source.
type Option func(*Source)

// WithContentKey copies the document body (the Markdown below the
// frontmatter) into the returned document under key.
func WithContentKey(key string) Option {
	return func(s *Source) {
		s.contentKey = key
	}
}

// New creates a new loam document source.
func New(repo *loam.TypedRepository[Metadata], opts ...Option) *Source {
	s := &Source{Repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Document returns a copy of the document's data.
func (s *Source) Document(ctx context.Context, id string) (map[string]any, error) {
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: loam get failed for %s: %v", domain.ErrDocumentNotFound, id, err)
	}

	out := make(map[string]any, len(doc.Data)+1)
	for k, v := range doc.Data {
		out[k] = v
	}
	if s.contentKey != "" && doc.Content != "" {
		out[s.contentKey] = doc.Content
	}
	return out, nil
}

// Documents lists document IDs in lexical order. Two files that map to the
// same ID (doc.md and doc.json) are reported as a collision.
func (s *Source) Documents(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := trimExtension(doc.ID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Watch emits the ID of every document that changes until ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}
