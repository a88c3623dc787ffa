package tests

import (
	"context"
	"reflect"
	"testing"

	"github.com/aretw0/conform/pkg/ports"
)

// DocumentSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.DocumentSource.
func DocumentSourceContractTest(t *testing.T, source ports.DocumentSource, want map[string]map[string]any) {
	t.Helper()
	ctx := context.Background()

	// 1. Test Document (Success)
	t.Run("Document_Success", func(t *testing.T) {
		for id, expected := range want {
			doc, err := source.Document(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting document %s: %v", id, err)
			}
			// Sources may attach bookkeeping keys; only the expected ones are compared.
			for key, value := range expected {
				if got, ok := doc[key]; !ok || !reflect.DeepEqual(got, value) {
					t.Errorf("content mismatch for %s.%s. got %v, want %v", id, key, got, value)
				}
			}
		}
	})

	// 2. Test Document (NotFound)
	t.Run("Document_NotFound", func(t *testing.T) {
		_, err := source.Document(ctx, "non-existent-document")
		if err == nil {
			t.Error("expected error for non-existent document, got nil")
		}
	})

	// 3. Test Documents
	t.Run("Documents", func(t *testing.T) {
		ids, err := source.Documents(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing documents: %v", err)
		}

		if len(ids) != len(want) {
			t.Errorf("expected %d documents, got %d", len(want), len(ids))
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for id := range want {
			if !lookup[id] {
				t.Errorf("expected document %s in list, but not found", id)
			}
		}
	})
}
