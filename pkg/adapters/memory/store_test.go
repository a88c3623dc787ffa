package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/conform/pkg/adapters/memory"
	"github.com/aretw0/conform/pkg/ports"
	"github.com/aretw0/conform/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSchemaStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	data := schema.Ordered{{Key: "tags", Value: []any{"string"}}}
	store := memory.NewStore(map[string]schema.Ordered{"seeded": data})

	loaded, err := store.Load(ctx, "seeded")
	require.NoError(t, err)
	loaded[0].Value.([]any)[0] = "number"

	again, err := store.Load(ctx, "seeded")
	require.NoError(t, err)
	assert.Equal(t, []any{"string"}, again[0].Value)
	assert.Equal(t, []any{"string"}, data[0].Value)
}
