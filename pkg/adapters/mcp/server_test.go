package mcp_test

import (
	"context"
	"testing"

	"github.com/aretw0/conform"
	"github.com/aretw0/conform/pkg/adapters/mcp"
	"github.com/aretw0/conform/pkg/adapters/memory"
	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *mcp.Server {
	t.Helper()
	store := memory.NewStore(map[string]schema.Ordered{
		"person": {
			{Key: "name", Value: schema.Ordered{
				{Key: "type", Value: "string"},
				{Key: "alias", Value: "fname"},
				{Key: "required", Value: true},
			}},
			{Key: "age", Value: "number"},
		},
	})
	checker, err := conform.New(conform.WithStore(store))
	require.NoError(t, err)
	return mcp.NewServer(checker)
}

func TestHandleValidate(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	res, err := s.HandleValidate(ctx, mcpgo.CallToolRequest{}, map[string]interface{}{
		"schema":   "person",
		"document": `{"fname": "Jane", "age": "old"}`,
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "age", res.Findings[0].Key)

	res, err = s.HandleValidate(ctx, mcpgo.CallToolRequest{}, map[string]interface{}{
		"schema":   "person",
		"document": "name: Jane\n",
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.NotNil(t, res.Findings)
}

func TestHandleValidate_Errors(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	_, err := s.HandleValidate(ctx, mcpgo.CallToolRequest{}, map[string]interface{}{"document": "{}"})
	assert.Error(t, err)

	_, err = s.HandleValidate(ctx, mcpgo.CallToolRequest{}, map[string]interface{}{"schema": "missing", "document": "{}"})
	assert.ErrorIs(t, err, domain.ErrSchemaNotFound)
}

func TestHandleNormalize(t *testing.T) {
	s := newServer(t)

	res, err := s.HandleNormalize(context.Background(), mcpgo.CallToolRequest{}, map[string]interface{}{
		"schema":   "person",
		"document": `{"fname": "Jane"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Jane"}, res.Document)
	require.NotNil(t, res.Diff)
	assert.Equal(t, []string{"fname"}, res.Diff.Removed)
}

func TestHandleListSchemas(t *testing.T) {
	s := newServer(t)

	res, err := s.HandleListSchemas(context.Background(), mcpgo.CallToolRequest{})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcpgo.TextContent)
	require.True(t, ok)
	assert.JSONEq(t, `["person"]`, text.Text)
}

func TestResources(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	contents, err := s.HandleSchemasResource(ctx, mcpgo.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.JSONEq(t, `["person"]`, contents[0].(mcpgo.TextResourceContents).Text)

	var req mcpgo.ReadResourceRequest
	req.Params.URI = "conform://schemas/person"
	contents, err = s.HandleSchemaResource(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t,
		`{"name":{"type":"string","alias":"fname","required":true},"age":"number"}`,
		contents[0].(mcpgo.TextResourceContents).Text)

	req.Params.URI = "conform://schemas/missing"
	_, err = s.HandleSchemaResource(ctx, req)
	assert.ErrorIs(t, err, domain.ErrSchemaNotFound)
}

func TestNewServer_RegistersTools(t *testing.T) {
	s := newServer(t)
	tools := s.MCPServer().ListTools()
	for _, name := range []string{"validate_document", "normalize_document", "list_schemas"} {
		assert.Contains(t, tools, name)
	}
}
