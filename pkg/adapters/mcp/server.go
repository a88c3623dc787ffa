package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/conform"
	"github.com/aretw0/conform/pkg/codec"
	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	schemasURI        = "conform://schemas"
	schemaTemplateURI = "conform://schemas/{name}"
)

// ValidateResponse aligns with the HTTP API so both adapters return the same shape.
type ValidateResponse struct {
	Valid    bool             `json:"valid" jsonschema_description:"False when any finding has error severity"`
	Findings []domain.Finding `json:"findings" jsonschema_description:"Findings in traversal order"`
}

// NormalizeResponse carries the normalized document.
type NormalizeResponse struct {
	Document map[string]any       `json:"document" jsonschema_description:"The document with aliased keys renamed"`
	Diff     *domain.DocumentDiff `json:"diff,omitempty" jsonschema_description:"Paths added and removed by normalization"`
}

// Checker is the part of *conform.Checker the MCP server needs.
type Checker interface {
	Validate(ctx context.Context, s any, doc map[string]any) ([]domain.Finding, error)
	Normalize(ctx context.Context, s any, doc map[string]any) (map[string]any, error)
	LoadSchema(ctx context.Context, name string) (schema.Ordered, error)
	Schemas(ctx context.Context) ([]string, error)
}

// Server exposes a Checker as an MCP server.
type Server struct {
	checker   Checker
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(checker Checker) *Server {
	s := &Server{
		checker:   checker,
		mcpServer: server.NewMCPServer("conform-mcp", strings.TrimSpace(conform.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down
// when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	validateTool := mcp.NewTool("validate_document",
		mcp.WithDescription("Validate a JSON or YAML document against a stored schema and list the findings."),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Name of the stored schema")),
		mcp.WithString("document", mcp.Required(), mcp.Description("The document, as JSON or YAML text")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.HandleValidate))

	normalizeTool := mcp.NewTool("normalize_document",
		mcp.WithDescription("Rename aliased keys of a JSON or YAML document to the canonical names of a stored schema."),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Name of the stored schema")),
		mcp.WithString("document", mcp.Required(), mcp.Description("The document, as JSON or YAML text")),
		mcp.WithOutputSchema[NormalizeResponse](),
	)
	s.mcpServer.AddTool(normalizeTool, mcp.NewStructuredToolHandler(s.HandleNormalize))

	s.mcpServer.AddTool(mcp.NewTool("list_schemas",
		mcp.WithDescription("List the names of the stored schemas."),
	), s.HandleListSchemas)
}

func (s *Server) HandleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	ref, doc, err := documentArgs(args)
	if err != nil {
		return ValidateResponse{}, err
	}

	findings, err := s.checker.Validate(ctx, ref, doc)
	if err != nil {
		slog.Warn("MCP Validate: failed", "schema", ref, "error", err)
		return ValidateResponse{}, fmt.Errorf("validate failed: %w", err)
	}
	if findings == nil {
		findings = []domain.Finding{}
	}
	return ValidateResponse{Valid: !domain.HasErrors(findings), Findings: findings}, nil
}

func (s *Server) HandleNormalize(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NormalizeResponse, error) {
	ref, doc, err := documentArgs(args)
	if err != nil {
		return NormalizeResponse{}, err
	}

	out, err := s.checker.Normalize(ctx, ref, doc)
	if err != nil {
		slog.Warn("MCP Normalize: failed", "schema", ref, "error", err)
		return NormalizeResponse{}, fmt.Errorf("normalize failed: %w", err)
	}
	return NormalizeResponse{Document: out, Diff: domain.Diff(doc, out)}, nil
}

func (s *Server) HandleListSchemas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.checker.Schemas(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if names == nil {
		names = []string{}
	}
	jsonBytes, _ := json.Marshal(names)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func documentArgs(args map[string]interface{}) (conform.Ref, map[string]any, error) {
	name, _ := args["schema"].(string)
	if name == "" {
		return "", nil, errors.New("schema is required")
	}
	raw, _ := args["document"].(string)
	doc, err := codec.DecodeDocument([]byte(raw))
	if err != nil {
		return "", nil, err
	}
	return conform.Ref(name), doc, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(schemasURI, "Stored Schemas",
		mcp.WithResourceDescription("Names of the schemas in the catalogue"),
		mcp.WithMIMEType("application/json"),
	), s.HandleSchemasResource)

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(schemaTemplateURI, "Schema",
		mcp.WithTemplateDescription("A stored schema in declaration order"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.HandleSchemaResource)
}

func (s *Server) HandleSchemasResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	names, err := s.checker.Schemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	jsonBytes, _ := json.Marshal(names)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemasURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (s *Server) HandleSchemaResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	name := strings.TrimPrefix(uri, schemasURI+"/")
	if name == "" || name == uri {
		return nil, fmt.Errorf("invalid schema uri %q", uri)
	}

	data, err := s.checker.LoadSchema(ctx, name)
	if err != nil {
		return nil, err
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
