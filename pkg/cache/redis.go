// Package cache is a small JSON cache over redis with a read-through helper.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

const defaultSetTimeout = 5 * time.Second

type Cache struct {
	client *redis.Client
	prefix string
	sf     singleflight.Group
}

type Options struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

type Option func(*Options)

func WithAddress(addr string) Option {
	return func(o *Options) {
		o.Address = addr
	}
}

func WithPassword(pass string) Option {
	return func(o *Options) {
		o.Password = pass
	}
}

func WithDB(db int) Option {
	return func(o *Options) {
		o.DB = db
	}
}

// WithPrefix namespaces every key.
func WithPrefix(prefix string) Option {
	return func(o *Options) {
		o.Prefix = prefix
	}
}

// New connects and pings the server.
func New(ctx context.Context, opts ...Option) (*Cache, error) {
	options := &Options{
		Address: "localhost:6379",
		Prefix:  "techrank:",
	}

	for _, opt := range opts {
		opt(options)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       options.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", options.Address, err)
	}

	return &Cache{client: client, prefix: options.Prefix}, nil
}

// Get decodes the value at key into dest. It returns ErrMiss when the key
// does not exist.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	return json.Unmarshal(val, dest)
}

// Set stores value as JSON under key. A zero expiration keeps it forever.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, expiration).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

type FetchFunc[T any] func(ctx context.Context) (T, error)

// FindAndCache serves key from the cache, otherwise calls fn once per key
// across concurrent callers and stores the result. fn runs without the
// caller's cancellation, so one departing caller does not fail the others. Cache failures degrade to
// calling fn; onErr, when set, is told about them.
func FindAndCache[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	fn FetchFunc[T],
	onErr func(error),
) (T, bool, error) {
	var zero T
	report := func(err error) {
		if onErr != nil {
			onErr(err)
		}
	}

	var cached T
	err := c.Get(ctx, key, &cached)
	switch {
	case err == nil:
		return cached, true, nil
	case errors.Is(err, ErrMiss):
	default:
		report(err)
	}

	ch := c.sf.DoChan(key, func() (any, error) {
		value, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultSetTimeout)
		defer cancel()
		if err := c.Set(setCtx, key, value, ttl); err != nil {
			report(err)
		}
		return value, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, false, res.Err
	}

	value, ok := res.Val.(T)
	if !ok {
		return zero, false, fmt.Errorf("type mismatch for key %q", key)
	}
	return value, false, nil
}
