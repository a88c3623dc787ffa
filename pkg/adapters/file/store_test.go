package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/conform/pkg/adapters/file"
	"github.com/aretw0/conform/pkg/codec"
	"github.com/aretw0/conform/pkg/ports"
	"github.com/aretw0/conform/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSchemaStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Contract_JSON(t *testing.T) {
	ports.RunSchemaStoreContract(t, file.New(t.TempDir(), file.WithFormat(codec.FormatJSON)))
}

func TestFileStore_ReadsHandWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "person.yml"), []byte("name: string\nage: number\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pet.json"), []byte(`{"kind": "string"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	store := file.New(dir)
	ctx := context.Background()

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"person", "pet"}, names)

	person, err := store.Load(ctx, "person")
	require.NoError(t, err)
	assert.Equal(t, schema.Ordered{{Key: "name", Value: "string"}, {Key: "age", Value: "number"}}, person)
}

func TestFileStore_SaveReplacesOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pet.json"), []byte(`{"kind": "string"}`), 0644))

	store := file.New(dir)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "pet", schema.Ordered{{Key: "kind", Value: "number"}}))

	_, err := os.Stat(filepath.Join(dir, "pet.json"))
	assert.True(t, os.IsNotExist(err))

	loaded, err := store.Load(ctx, "pet")
	require.NoError(t, err)
	assert.Equal(t, schema.Ordered{{Key: "kind", Value: "number"}}, loaded)
}

func TestFileStore_RejectsPaths(t *testing.T) {
	store := file.New(t.TempDir())
	err := store.Save(context.Background(), "../escape", schema.Ordered{})
	assert.Error(t, err)
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
