package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/conform"
	"github.com/aretw0/conform/pkg/codec"
	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes caps schema and document uploads.
const maxBodyBytes = 4 << 20

// Checker is the part of *conform.Checker the server needs.
type Checker interface {
	Validate(ctx context.Context, s any, doc map[string]any) ([]domain.Finding, error)
	Normalize(ctx context.Context, s any, doc map[string]any) (map[string]any, error)
	Check(ctx context.Context, s any, doc map[string]any) (*conform.Result, error)
	LoadSchema(ctx context.Context, name string) (schema.Ordered, error)
	SaveSchema(ctx context.Context, name string, data schema.Ordered) error
	DeleteSchema(ctx context.Context, name string) error
	Schemas(ctx context.Context) ([]string, error)
}

// Server serves the catalogue and validation endpoints.
type Server struct {
	Checker Checker
	Streams *StreamManager
	Metrics http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithMetricsHandler replaces the default Prometheus handler on /metrics.
// A nil handler removes the route.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// NewHandler creates a new HTTP handler for the checker.
func NewHandler(checker Checker, opts ...Option) http.Handler {
	s := &Server{
		Checker: checker,
		Streams: NewStreamManager(),
		Metrics: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)

	r.Route("/schemas", func(r chi.Router) {
		r.Get("/", s.ListSchemas)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.GetSchema)
			r.Put("/", s.PutSchema)
			r.Delete("/", s.DeleteSchema)
			r.Post("/validate", s.ValidateDocument)
			r.Post("/normalize", s.NormalizeDocument)
			r.Post("/check", s.CheckDocument)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Conform API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type validateResponse struct {
	Valid    bool             `json:"valid"`
	Findings []domain.Finding `json:"findings"`
}

type checkResponse struct {
	Valid bool `json:"valid"`
	*conform.Result
}

// schemaEvent is broadcast to /events subscribers.
type schemaEvent struct {
	Type      string    `json:"type"`
	Schema    string    `json:"schema"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "conform-http",
		"version":     strings.TrimSpace(conform.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) ListSchemas(w http.ResponseWriter, r *http.Request) {
	names, err := s.Checker.Schemas(r.Context())
	if err != nil {
		writeError(w, "ListSchemas", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	data, err := s.Checker.LoadSchema(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, "GetSchema", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) PutSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := readBody(w, r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("PutSchema: Invalid request body", "error", err)
		return
	}

	data, err := codec.DecodeSchema(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		slog.Warn("PutSchema: Undecodable schema", "schema", name, "error", err)
		return
	}

	if err := s.Checker.SaveSchema(r.Context(), name, data); err != nil {
		writeError(w, "PutSchema", err)
		return
	}
	s.broadcast("schema.saved", name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) DeleteSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.Checker.DeleteSchema(r.Context(), name); err != nil {
		writeError(w, "DeleteSchema", err)
		return
	}
	s.broadcast("schema.deleted", name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ValidateDocument(w http.ResponseWriter, r *http.Request) {
	ref, doc, ok := s.readDocument(w, r, "ValidateDocument")
	if !ok {
		return
	}
	findings, err := s.Checker.Validate(r.Context(), ref, doc)
	if err != nil {
		writeError(w, "ValidateDocument", err)
		return
	}
	if findings == nil {
		findings = []domain.Finding{}
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:    !domain.HasErrors(findings),
		Findings: findings,
	})
}

func (s *Server) NormalizeDocument(w http.ResponseWriter, r *http.Request) {
	ref, doc, ok := s.readDocument(w, r, "NormalizeDocument")
	if !ok {
		return
	}
	out, err := s.Checker.Normalize(r.Context(), ref, doc)
	if err != nil {
		writeError(w, "NormalizeDocument", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": out})
}

func (s *Server) CheckDocument(w http.ResponseWriter, r *http.Request) {
	ref, doc, ok := s.readDocument(w, r, "CheckDocument")
	if !ok {
		return
	}
	res, err := s.Checker.Check(r.Context(), ref, doc)
	if err != nil {
		writeError(w, "CheckDocument", err)
		return
	}
	if res.Findings == nil {
		res.Findings = []domain.Finding{}
	}
	writeJSON(w, http.StatusOK, checkResponse{Valid: res.Valid(), Result: res})
}

// SubscribeEvents streams catalogue changes. ?schema=name narrows the
// stream to one schema.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		slog.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := s.Streams.Subscribe(r.URL.Query().Get("schema"))
	defer unsubscribe()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: schema\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcast(kind, name string) {
	payload, err := json.Marshal(schemaEvent{Type: kind, Schema: name, Timestamp: time.Now()})
	if err != nil {
		slog.Error("Failed to encode schema event", "error", err)
		return
	}
	s.Streams.Broadcast(name, string(payload))
}

func (s *Server) readDocument(w http.ResponseWriter, r *http.Request, op string) (conform.Ref, map[string]any, bool) {
	body, err := readBody(w, r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn(op+": Invalid request body", "error", err)
		return "", nil, false
	}
	doc, err := codec.DecodeDocument(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		slog.Warn(op+": Undecodable document", "error", err)
		return "", nil, false
	}
	return conform.Ref(chi.URLParam(r, "name")), doc, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSchemaNotFound):
		status = http.StatusNotFound
	case errors.Is(err, schema.ErrInvalidSchemaType), errors.Is(err, domain.ErrShapeMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrReadOnly):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", "error", err)
	} else {
		slog.Warn(op+" rejected", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}
