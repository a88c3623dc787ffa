package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/conform"
	"github.com/aretw0/conform/internal/logging"
	"github.com/aretw0/conform/pkg/adapters/file"
	"github.com/aretw0/conform/pkg/adapters/memory"
	"github.com/aretw0/conform/pkg/adapters/redis"
	"github.com/aretw0/conform/pkg/persistence/middleware"
	"github.com/aretw0/conform/pkg/ports"
	"github.com/aretw0/conform/pkg/registry"
	backend "github.com/redis/go-redis/v9"
)

// Store backends accepted by --store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Options contains the global flags shared by every command.
type Options struct {
	LogLevel      string
	Store         string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Expressions enables {cel: ...} callbacks in stored schemas.
	Expressions bool
	// Presence makes 0, false and "" satisfy required fields.
	Presence bool
	// ReadOnly rejects schema writes.
	ReadOnly bool
	// CacheTTL keeps loaded schemas in memory; zero disables the cache.
	CacheTTL time.Duration
}

// CreateLogger configures the application logger from --log-level.
// Logs go to Stderr so that reports and normalized documents own Stdout.
func CreateLogger(opts Options) (*slog.Logger, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// NewChecker builds a Checker wired to the catalogue selected by opts. The
// returned close function releases the backend connection.
func NewChecker(opts Options, logger *slog.Logger, extra ...conform.Option) (*conform.Checker, func() error, error) {
	reg := registry.NewRegistry()
	registry.RegisterBuiltins(reg)

	checkerOpts := []conform.Option{
		conform.WithLogger(logger),
		conform.WithRegistry(reg),
	}
	if opts.Expressions {
		checkerOpts = append(checkerOpts, conform.WithExpressions())
	}
	if opts.Presence {
		checkerOpts = append(checkerOpts, conform.WithPresence())
	}

	var store ports.SchemaStore
	closeFn := func() error { return nil }
	switch opts.Store {
	case StoreMemory:
		store = memory.NewStore()
	case "", StoreFile:
		store = file.New(opts.Dir)
	case StoreRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		store = redis.NewFromClient(client)
		checkerOpts = append(checkerOpts, conform.WithLocker(redis.NewLocker(client, redis.DefaultPrefix)))
		closeFn = client.Close
		logger.Debug("Using redis schema store", "addr", opts.RedisAddr, "db", opts.RedisDB)
	default:
		return nil, nil, fmt.Errorf("unknown store %q (expected memory, file or redis)", opts.Store)
	}

	var mws []middleware.Middleware
	if opts.ReadOnly {
		mws = append(mws, middleware.NewReadOnlyMiddleware())
	}
	if opts.CacheTTL > 0 {
		mws = append(mws, middleware.NewCacheMiddleware(opts.CacheTTL))
	}
	checkerOpts = append(checkerOpts, conform.WithStore(middleware.Chain(store, mws...)))

	checker, err := conform.New(append(checkerOpts, extra...)...)
	if err != nil {
		return nil, nil, errors.Join(err, closeFn())
	}
	return checker, closeFn, nil
}
