package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/conform/pkg/codec"
	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces schema keys.
const DefaultPrefix = "conform:schema:"

// noExpiry is the index score of schemas saved without a TTL (2100-01-01).
const noExpiry = 4102444800

// Store implements ports.SchemaStore using Redis. Schemas are stored as JSON
// strings and indexed by a sorted set scored by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for saved schemas.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for schemas.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the schema as JSON and indexes its name.
func (s *Store) Save(ctx context.Context, name string, data schema.Ordered) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}
	payload, err := codec.EncodeSchema(data, codec.FormatJSON)
	if err != nil {
		return err
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiry
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(name), payload, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: name})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the schema from Redis.
func (s *Store) Load(ctx context.Context, name string) (schema.Ordered, error) {
	val, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSchemaNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	parsed, err := codec.DecodeSchema(val)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return parsed, nil
}

// Delete removes the schema and its index entry.
func (s *Store) Delete(ctx context.Context, name string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(name))
	pipe.ZRem(ctx, s.indexKey(), name)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored schema names in lexical order, pruning expired index
// entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired schemas: %w", err)
	}

	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	// The index is scored by expiry, not by name.
	slices.Sort(names)
	return names, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
