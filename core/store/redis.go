package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisMaxRetries = 100

// Redis stores each document under <prefix>:<name> and uses WATCH/MULTI
// so concurrent writers retry instead of overwriting each other.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis parses url and returns a backend using prefix for its keys.
func NewRedis(url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("store: parse redis url: %w", err)
	}
	return NewRedisClient(redis.NewClient(opts), prefix), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(doc Document) string {
	return fmt.Sprintf("%s:%s", r.prefix, doc)
}

// Read returns the document or nil when the key is absent.
func (r *Redis) Read(ctx context.Context, doc Document) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(doc)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

// Update retries the optimistic transaction until it commits or the retry budget runs out.
func (r *Redis) Update(ctx context.Context, doc Document, fn UpdateFunc) error {
	key := r.key(doc)
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

// Ping checks the server connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
