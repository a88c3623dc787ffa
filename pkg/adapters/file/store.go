package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/conform/pkg/codec"
	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
)

// extensions are probed in this order when loading a schema.
var extensions = []string{".yaml", ".yml", ".json"}

// Store implements ports.SchemaStore using a directory of YAML or JSON files,
// one schema per file named after the schema.
type Store struct {
	BasePath string
	format   codec.Format
}

// Option configures the file store.
type Option func(*Store)

// WithFormat sets the format new schemas are written in (default YAML).
func WithFormat(format codec.Format) Option {
	return func(s *Store) {
		s.format = format
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".conform/schemas".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".conform", "schemas")
	}
	s := &Store{BasePath: basePath, format: codec.FormatYAML}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the schema atomically: to a temporary file first, synced, then
// renamed over the destination. Other files holding the same schema name
// under a different extension are removed.
func (s *Store) Save(ctx context.Context, name string, data schema.Ordered) error {
	if err := checkName(name); err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure schema directory: %w", err)
	}

	ext := ".yaml"
	if s.format == codec.FormatJSON {
		ext = ".json"
	}
	destPath := filepath.Join(s.BasePath, name+ext)

	content, err := codec.EncodeSchema(data, s.format)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+name+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(content); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing schema file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to schema file: %w", err)
	}

	for _, other := range extensions {
		if other != ext {
			_ = os.Remove(filepath.Join(s.BasePath, name+other))
		}
	}
	return nil
}

// Load reads the schema from the first of name.yaml, name.yml and name.json
// that exists.
func (s *Store) Load(ctx context.Context, name string) (schema.Ordered, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	for _, ext := range extensions {
		data, err := os.ReadFile(filepath.Join(s.BasePath, name+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file: %w", err)
		}
		parsed, err := codec.DecodeSchema(data)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		return parsed, nil
	}
	return nil, domain.ErrSchemaNotFound
}

// Delete removes every file holding the schema.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	for _, ext := range extensions {
		err := os.Remove(filepath.Join(s.BasePath, name+ext))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete schema file: %w", err)
		}
	}
	return nil
}

// List returns the names of all schema files in the directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list schema directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "tmp-") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !slices.Contains(extensions, strings.ToLower(ext)) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid schema name %q", name)
	}
	return nil
}
