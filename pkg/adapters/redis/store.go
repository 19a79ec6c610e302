package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finecision/finecision/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "finecision:"

// noExpiry is the index score of records without TTL (2100-01-01).
const noExpiry = 4102444800

type options struct {
	prefix string
	ttl    time.Duration
}

// Option configures a Redis store.
type Option func(*options)

// WithTTL sets the expiration of stored records. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func newOptions(opts []Option) options {
	o := options{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient connects to a Redis server.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// collection stores JSON documents under <prefix><kind>:<id> and keeps a
// ZSET index <prefix><kind>:index scored by expiry time.
type collection[T any] struct {
	client   *backend.Client
	prefix   string
	ttl      time.Duration
	notFound error
}

func (c *collection[T]) key(id string) string {
	return c.prefix + id
}

func (c *collection[T]) indexKey() string {
	return c.prefix + "index"
}

func (c *collection[T]) save(ctx context.Context, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.key(id), data, c.ttl)

	score := float64(time.Now().Add(c.ttl).Unix())
	if c.ttl == 0 {
		score = noExpiry
	}
	pipe.ZAdd(ctx, c.indexKey(), backend.Z{
		Score:  score,
		Member: id,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (c *collection[T]) load(ctx context.Context, id string) (*T, error) {
	val, err := c.client.Get(ctx, c.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, c.notFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var v T
	if err := json.Unmarshal([]byte(val), &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %q: %w", id, err)
	}
	return &v, nil
}

// list prunes expired index entries and fetches the remaining documents.
func (c *collection[T]) list(ctx context.Context) ([]*T, error) {
	now := float64(time.Now().Unix())
	if err := c.client.ZRemRangeByScore(ctx, c.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired records: %w", err)
	}

	ids, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if len(ids) == 0 {
		return []*T{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	raw, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	all := make([]*T, 0, len(raw))
	for i, r := range raw {
		s, ok := r.(string)
		if !ok {
			// Expired between ZRANGE and MGET.
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %q: %w", ids[i], err)
		}
		all = append(all, &v)
	}
	return all, nil
}

// WorkflowStore implements ports.WorkflowStore using Redis.
type WorkflowStore struct {
	client *backend.Client
	docs   collection[domain.Workflow]
}

// NewWorkflowStore creates a workflow store on an existing client.
func NewWorkflowStore(client *backend.Client, opts ...Option) *WorkflowStore {
	o := newOptions(opts)
	return &WorkflowStore{
		client: client,
		docs: collection[domain.Workflow]{
			client:   client,
			prefix:   o.prefix + "workflow:",
			ttl:      o.ttl,
			notFound: domain.ErrWorkflowNotFound,
		},
	}
}

// Save persists the workflow as JSON.
func (s *WorkflowStore) Save(ctx context.Context, wf *domain.Workflow) error {
	return s.docs.save(ctx, wf.ID, wf)
}

// Load retrieves a workflow.
func (s *WorkflowStore) Load(ctx context.Context, id string) (*domain.Workflow, error) {
	return s.docs.load(ctx, id)
}

// List returns all stored workflows.
func (s *WorkflowStore) List(ctx context.Context) ([]*domain.Workflow, error) {
	return s.docs.list(ctx)
}

// Close closes the redis client.
func (s *WorkflowStore) Close() error {
	return s.client.Close()
}

// ApplicationStore implements ports.ApplicationStore using Redis.
type ApplicationStore struct {
	docs collection[domain.Application]
}

// NewApplicationStore creates an application store on an existing client.
func NewApplicationStore(client *backend.Client, opts ...Option) *ApplicationStore {
	o := newOptions(opts)
	return &ApplicationStore{
		docs: collection[domain.Application]{
			client:   client,
			prefix:   o.prefix + "application:",
			ttl:      o.ttl,
			notFound: domain.ErrApplicationNotFound,
		},
	}
}

// Save persists the application as JSON.
func (s *ApplicationStore) Save(ctx context.Context, app *domain.Application) error {
	return s.docs.save(ctx, app.ID, app)
}

// Load retrieves an application.
func (s *ApplicationStore) Load(ctx context.Context, id string) (*domain.Application, error) {
	return s.docs.load(ctx, id)
}

// List returns all applications that have not expired.
func (s *ApplicationStore) List(ctx context.Context) ([]*domain.Application, error) {
	return s.docs.list(ctx)
}
