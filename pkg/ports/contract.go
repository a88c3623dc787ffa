package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSchemaStoreContract runs a suite of tests to verify that a SchemaStore
// implementation adheres to the defined interface contract.
func RunSchemaStoreContract(t *testing.T, store SchemaStore) {
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	person := schema.Ordered{
		{Key: "name", Value: schema.Ordered{
			{Key: "type", Value: "string"},
			{Key: "alias", Value: "fname"},
			{Key: "required", Value: true},
		}},
		{Key: "age", Value: "number"},
		{Key: "tags", Value: []any{"string"}},
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, name, person)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, 3)
		assert.Equal(t, "name", loaded[0].Key, "field order must survive storage")
		assert.Equal(t, "age", loaded[1].Key)
		assert.Equal(t, "tags", loaded[2].Key)

		root, err := schema.Parse(loaded)
		require.NoError(t, err, "stored data must still parse")
		n, ok := root.Lookup("name")
		require.True(t, ok)
		assert.Equal(t, "fname", schema.Describe(n).Alias)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, schema.Ordered{{Key: "only", Value: "boolean"}}))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "only", loaded[0].Key)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrSchemaNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, person))

		err := store.Delete(ctx, name)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrSchemaNotFound, "Load after Delete should return ErrSchemaNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-1"
		id2 := name + "-2"
		require.NoError(t, store.Save(ctx, id2, person))
		require.NoError(t, store.Save(ctx, id1, person))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
		assert.IsNonDecreasing(t, names)
	})
}
