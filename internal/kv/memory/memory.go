// Package memory is an in-process session backend with TTL and bounded-list
// semantics. It backs tests and local runs; state is lost on restart.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrClosed    = errors.New("memory: backend closed")
	ErrWrongType = errors.New("memory: operation against a key holding the wrong kind of value")
)

type item struct {
	value   string
	list    []string
	isList  bool
	expires time.Time
}

// Backend guards all keys with one mutex, which makes every operation
// atomic per key.
type Backend struct {
	mu     sync.Mutex
	items  map[string]*item
	now    func() time.Time
	closed bool
}

type Option func(*Backend)

func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

func New(opts ...Option) *Backend {
	b := &Backend{items: map[string]*item{}, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// live returns the unexpired item at key, dropping it when expired. Callers
// hold b.mu.
func (b *Backend) live(key string) *item {
	it, ok := b.items[key]
	if !ok {
		return nil
	}
	if !it.expires.IsZero() && !b.now().Before(it.expires) {
		delete(b.items, key)
		return nil
	}
	return it
}

func (b *Backend) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return b.now().Add(ttl)
}

func (b *Backend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", false, ErrClosed
	}
	it := b.live(key)
	if it == nil {
		return "", false, nil
	}
	if it.isList {
		return "", false, ErrWrongType
	}
	return it.value, true, nil
}

func (b *Backend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.items[key] = &item{value: value, expires: b.expiry(ttl)}
	return nil
}

func (b *Backend) PushTrim(_ context.Context, key, value string, maxLen int, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	it := b.live(key)
	if it == nil {
		it = &item{isList: true}
		b.items[key] = it
	}
	if !it.isList {
		return ErrWrongType
	}
	list := make([]string, 0, min(len(it.list)+1, max(maxLen, 1)))
	list = append(list, value)
	list = append(list, it.list...)
	if maxLen > 0 && len(list) > maxLen {
		list = list[:maxLen]
	}
	it.list = list
	it.expires = b.expiry(ttl)
	return nil
}

func (b *Backend) Range(_ context.Context, key string, limit int) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	it := b.live(key)
	if it == nil || limit <= 0 {
		return nil, nil
	}
	if !it.isList {
		return nil, ErrWrongType
	}
	n := min(limit, len(it.list))
	out := make([]string, n)
	copy(out, it.list[:n])
	return out, nil
}

func (b *Backend) Update(_ context.Context, key string, ttl time.Duration, fn func(string, bool) (string, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	current, found := "", false
	if it := b.live(key); it != nil {
		if it.isList {
			return ErrWrongType
		}
		current, found = it.value, true
	}
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	b.items[key] = &item{value: next, expires: b.expiry(ttl)}
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.items = map[string]*item{}
	return nil
}
