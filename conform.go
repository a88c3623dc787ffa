package conform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/conform/internal/normalizer"
	"github.com/aretw0/conform/internal/validator"
	"github.com/aretw0/conform/pkg/celtest"
	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/ports"
	"github.com/aretw0/conform/pkg/registry"
	"github.com/aretw0/conform/pkg/schema"
	"github.com/google/uuid"
)

// lockTTL bounds how long a schema write may hold the catalogue lock.
const lockTTL = 10 * time.Second

// Checker is the high-level entry point: it parses schemas, runs the
// validator and normalizer, and reports each run to its hooks and logger.
type Checker struct {
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	registry *registry.Registry
	cel      *celtest.Compiler
	useCEL   bool
	store    ports.SchemaStore
	locker   ports.Locker
	presence bool
}

// Option defines a functional option for configuring the Checker.
type Option func(*Checker)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Checker) {
		c.hooks = hooks
	}
}

// WithRegistry lets data-defined schemas name callbacks registered in r.
func WithRegistry(r *registry.Registry) Option {
	return func(c *Checker) {
		c.registry = r
	}
}

// WithExpressions lets data-defined schemas declare CEL callbacks
// ({cel: "...", message: "..."}).
func WithExpressions() Option {
	return func(c *Checker) {
		c.useCEL = true
	}
}

// WithPresence makes required fields accept any non-nil value, including
// 0, false and "".
func WithPresence() Option {
	return func(c *Checker) {
		c.presence = true
	}
}

// WithStore sets the schema catalogue used for Ref schemas.
func WithStore(store ports.SchemaStore) Option {
	return func(c *Checker) {
		c.store = store
	}
}

// WithLocker serializes SaveSchema and DeleteSchema across replicas.
func WithLocker(locker ports.Locker) Option {
	return func(c *Checker) {
		c.locker = locker
	}
}

// New initializes a Checker.
func New(opts ...Option) (*Checker, error) {
	c := &Checker{}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if c.useCEL {
		compiler, err := celtest.New()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize expressions: %w", err)
		}
		c.cel = compiler
	}
	return c, nil
}

// Ref names a schema held in the Checker's store. It can be passed anywhere
// a schema is accepted.
type Ref string

// Result is the outcome of Check.
type Result struct {
	// Document is the document the findings refer to: the normalized copy,
	// or the input when its shape could not be normalized.
	Document map[string]any `json:"document"`
	Findings []Finding      `json:"findings"`
	// Diff lists the paths normalization moved; nil when nothing changed.
	Diff *domain.DocumentDiff `json:"diff,omitempty"`
}

// Valid reports whether the result carries no error-severity findings.
func (r *Result) Valid() bool {
	return !domain.HasErrors(r.Findings)
}

// Parse turns schema data into a schema tree. String callbacks resolve
// through the registry and {cel: ...} callbacks through the expression
// compiler, when configured.
// Schemas built in Go are re-checked the same way, so authoring errors fail
// here rather than surfacing as findings.
func (c *Checker) Parse(s any) (*schema.ObjectSchema, error) {
	if c.registry == nil && c.cel == nil {
		return schema.Parse(s)
	}
	return schema.Parse(s, schema.WithCallbacks(c.resolveCallback))
}

func (c *Checker) resolveCallback(spec any) (schema.TestFunc, error) {
	switch spec.(type) {
	case string:
		if c.registry == nil {
			return nil, fmt.Errorf("no callback registry configured for %q", spec)
		}
		return c.registry.Resolve(spec)
	}
	if c.cel == nil {
		return nil, fmt.Errorf("expressions are not enabled")
	}
	return c.cel.Resolve(spec)
}

// Validate checks doc against s and returns the findings in traversal order.
// The error is non-nil only when the schema itself cannot be used.
func (c *Checker) Validate(ctx context.Context, s any, doc map[string]any) ([]Finding, error) {
	var findings []Finding
	err := c.run(ctx, domain.OpValidate, s, func(root *schema.ObjectSchema, ev *domain.RunEvent) error {
		findings = validator.Validate(root, doc, c.validatorOptions()...)
		ev.Findings = findings
		return nil
	})
	return findings, err
}

// Normalize returns a copy of doc with aliased keys renamed to their
// canonical names.
func (c *Checker) Normalize(ctx context.Context, s any, doc map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.run(ctx, domain.OpNormalize, s, func(root *schema.ObjectSchema, _ *domain.RunEvent) error {
		var err error
		out, err = normalizer.Normalize(root, doc)
		return err
	})
	return out, err
}

// Check normalizes doc and validates the normalized copy. When the document
// is too far from the schema's shape to normalize, the input itself is
// validated and returned unchanged, so every finding is still reported.
func (c *Checker) Check(ctx context.Context, s any, doc map[string]any) (*Result, error) {
	var res *Result
	err := c.run(ctx, domain.OpCheck, s, func(root *schema.ObjectSchema, ev *domain.RunEvent) error {
		normalized, err := normalizer.Normalize(root, doc)
		if err != nil && !errors.Is(err, domain.ErrShapeMismatch) {
			return err
		}
		res = &Result{Document: doc}
		if err != nil {
			c.logger.Debug("Normalization skipped", "run_id", ev.RunID, "err", err)
		} else {
			res.Document = normalized
			res.Diff = domain.Diff(doc, normalized)
		}
		res.Findings = validator.Validate(root, res.Document, c.validatorOptions()...)
		ev.Findings = res.Findings
		return nil
	})
	return res, err
}

// Decode runs Check and, when no error findings remain, decodes the
// normalized document into out. Rejected documents return a
// *domain.FindingsError.
func (c *Checker) Decode(ctx context.Context, s any, doc map[string]any, out any) error {
	res, err := c.Check(ctx, s, doc)
	if err != nil {
		return err
	}
	if err := domain.Reject(res.Findings); err != nil {
		return err
	}
	return decodeInto(res.Document, out)
}

func (c *Checker) validatorOptions() []validator.Option {
	if c.presence {
		return []validator.Option{validator.WithPresence()}
	}
	return nil
}

// run wraps a single operation with run identifiers, hooks and logging.
func (c *Checker) run(ctx context.Context, op domain.Operation, s any, fn func(*schema.ObjectSchema, *domain.RunEvent) error) error {
	ev := &domain.RunEvent{
		Timestamp: time.Now(),
		RunID:     uuid.NewString(),
		Operation: op,
	}
	if ref, ok := s.(Ref); ok {
		ev.Schema = string(ref)
	}
	logger := c.logger.With("run_id", ev.RunID, "op", op)

	if c.hooks.OnRunStart != nil {
		c.hooks.OnRunStart(ctx, ev)
	}

	root, err := c.schemaFor(ctx, s)
	if err == nil {
		err = fn(root, ev)
	}
	ev.Duration = time.Since(ev.Timestamp)
	ev.Err = err

	if c.hooks.OnFinding != nil {
		for _, f := range ev.Findings {
			c.hooks.OnFinding(ctx, ev, f)
		}
	}

	if err != nil {
		logger.Debug("Run failed", "schema", ev.Schema, "err", err)
	} else {
		errs, warnings := domain.Count(ev.Findings)
		logger.Debug("Run finished", "schema", ev.Schema, "errors", errs, "warnings", warnings, "duration", ev.Duration)
	}

	if c.hooks.OnRunEnd != nil {
		c.hooks.OnRunEnd(ctx, ev)
	}
	return err
}

func (c *Checker) schemaFor(ctx context.Context, s any) (*schema.ObjectSchema, error) {
	ref, ok := s.(Ref)
	if !ok {
		return c.Parse(s)
	}
	data, err := c.LoadSchema(ctx, string(ref))
	if err != nil {
		return nil, err
	}
	return c.Parse(data)
}

var errNoStore = errors.New("no schema store configured")

// LoadSchema returns the stored data of a schema.
func (c *Checker) LoadSchema(ctx context.Context, name string) (schema.Ordered, error) {
	if c.store == nil {
		return nil, errNoStore
	}
	data, err := c.store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return data, nil
}

// SaveSchema parses data to make sure it is usable, then stores it under
// name.
func (c *Checker) SaveSchema(ctx context.Context, name string, data schema.Ordered) error {
	if c.store == nil {
		return errNoStore
	}
	if _, err := c.Parse(data); err != nil {
		return err
	}

	unlock, err := c.lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock(ctx)

	if err := c.store.Save(ctx, name, data); err != nil {
		return err
	}
	c.logger.Info("Schema saved", "schema", name)
	return nil
}

// DeleteSchema removes a stored schema.
func (c *Checker) DeleteSchema(ctx context.Context, name string) error {
	if c.store == nil {
		return errNoStore
	}
	unlock, err := c.lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock(ctx)

	if err := c.store.Delete(ctx, name); err != nil {
		return err
	}
	c.logger.Info("Schema deleted", "schema", name)
	return nil
}

// Schemas lists the stored schema names.
func (c *Checker) Schemas(ctx context.Context) ([]string, error) {
	if c.store == nil {
		return nil, errNoStore
	}
	return c.store.List(ctx)
}

// Store returns the schema catalogue, or nil.
func (c *Checker) Store() ports.SchemaStore {
	return c.store
}

func (c *Checker) lock(ctx context.Context, name string) (func(context.Context), error) {
	if c.locker == nil {
		return func(context.Context) {}, nil
	}
	unlock, err := c.locker.Lock(ctx, "schema:"+name, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock schema %s: %w", name, err)
	}
	return func(ctx context.Context) {
		if err := unlock(ctx); err != nil {
			c.logger.Warn("Failed to release schema lock", "schema", name, "err", err)
		}
	}, nil
}
