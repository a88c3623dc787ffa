package loam_test

import (
	"context"
	"testing"

	"github.com/aretw0/conform/internal/testutils"
	conformloam "github.com/aretw0/conform/pkg/adapters/loam"
	"github.com/aretw0/conform/pkg/domain"
	contract "github.com/aretw0/conform/pkg/ports/tests"
	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(t *testing.T, files map[string]string, opts ...conformloam.Option) *conformloam.Source {
	t.Helper()
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, files)
	return conformloam.New(loam.NewTypedRepository[conformloam.Metadata](repo), opts...)
}

func TestLoamSource_Contract(t *testing.T) {
	source := newSource(t, map[string]string{
		"people/john.md": "---\nfname: John\nactive: true\n---\nBio",
		"people/jane.json": `{"name": "Jane", "active": false}`,
	})

	contract.DocumentSourceContractTest(t, source, map[string]map[string]any{
		"people/john": {"fname": "John", "active": true},
		"people/jane": {"name": "Jane", "active": false},
	})
}

func TestLoamSource_ContentKey(t *testing.T) {
	source := newSource(t, map[string]string{
		"post.md": "---\ntitle: Hello\n---\nBody text",
	}, conformloam.WithContentKey("body"))

	doc, err := source.Document(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc["title"])
	assert.Contains(t, doc["body"], "Body text")
}

func TestLoamSource_NotFound(t *testing.T) {
	source := newSource(t, map[string]string{"a.md": "---\nx: y\n---\n"})

	_, err := source.Document(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestLoamSource_DetectsCollisions(t *testing.T) {
	source := newSource(t, map[string]string{
		"foo.md":   "---\nname: foo\n---\n",
		"foo.json": `{"name": "foo"}`,
	})

	_, err := source.Documents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}
