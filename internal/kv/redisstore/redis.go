// Package redisstore is the production session backend on Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lockStripes = 64
	baseBackoff = 2 * time.Millisecond
	maxBackoff  = 100 * time.Millisecond
)

// ErrContention is returned when the context ends while an Update is still
// losing its optimistic lock.
var ErrContention = errors.New("redisstore: update aborted after repeated concurrent modification")

// Options configures Dial.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Backend runs each multi-step operation in a MULTI/EXEC transaction, and
// read-modify-write updates under WATCH. Updates on one key are serialized
// in-process; the WATCH retry only races other processes and keeps going
// until the context ends.
type Backend struct {
	client redis.UniversalClient
	locks  [lockStripes]sync.Mutex
}

// New wraps an existing client.
func New(client redis.UniversalClient) (*Backend, error) {
	if client == nil {
		return nil, errors.New("redisstore: client must not be nil")
	}
	return &Backend{client: client}, nil
}

// Dial connects to Redis and verifies the connection with PING.
func Dial(ctx context.Context, opts Options) (*Backend, error) {
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, errors.New("redisstore: address must not be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping %s: %w", opts.Addr, err)
	}
	return New(client)
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redisstore: get %q: %w", key, err)
	}
	return v, true, nil
}

func (b *Backend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set %q: %w", key, err)
	}
	return nil
}

func (b *Backend) PushTrim(ctx context.Context, key, value string, maxLen int, ttl time.Duration) error {
	_, err := b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, value)
		if maxLen > 0 {
			p.LTrim(ctx, key, 0, int64(maxLen-1))
		}
		if ttl > 0 {
			p.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: push %q: %w", key, err)
	}
	return nil
}

func (b *Backend) Range(ctx context.Context, key string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	vals, err := b.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: range %q: %w", key, err)
	}
	return vals, nil
}

func (b *Backend) Update(ctx context.Context, key string, ttl time.Duration, fn func(string, bool) (string, error)) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		found := true
		if errors.Is(err, redis.Nil) {
			found, err = false, nil
		}
		if err != nil {
			return err
		}
		next, err := fn(current, found)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, next, ttl)
			return nil
		})
		return err
	}

	mu := b.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 0; ; attempt++ {
		err := b.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			if ctxErr := ctx.Err(); ctxErr != nil && attempt > 0 {
				return fmt.Errorf("%w: %w", ErrContention, ctxErr)
			}
			return fmt.Errorf("redisstore: update %q: %w", key, err)
		}
		t := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %w", ErrContention, ctx.Err())
		case <-t.C:
		}
	}
}

func (b *Backend) keyLock(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &b.locks[h.Sum32()%lockStripes]
}

// backoff is exponential with full jitter, capped at maxBackoff.
func backoff(attempt int) time.Duration {
	d := maxBackoff
	if attempt < 6 {
		d = min(baseBackoff<<attempt, maxBackoff)
	}
	return time.Duration(rand.Int64N(int64(d)) + 1)
}

func (b *Backend) Close() error {
	return b.client.Close()
}
