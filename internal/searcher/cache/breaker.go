package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/resilience"
)

type breakerStore struct {
	store  Store
	cb     *resilience.CircuitBreaker
	isMiss func(error) bool
}

// WithBreaker guards store with cb. A Get reporting a miss counts as a
// successful call; only transport failures move the breaker towards open.
// While open, calls fail fast with resilience.ErrCircuitOpen and the cache
// falls through to its source.
func WithBreaker(store Store, cb *resilience.CircuitBreaker, isMiss func(error) bool) Store {
	if isMiss == nil {
		isMiss = func(error) bool { return false }
	}
	return &breakerStore{store: store, cb: cb, isMiss: isMiss}
}

func (b *breakerStore) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		data    []byte
		missErr error
	)
	err := b.cb.Execute(func() error {
		var err error
		data, err = b.store.Get(ctx, key)
		if err != nil && b.isMiss(err) {
			missErr = err
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if missErr != nil {
		return nil, missErr
	}
	return data, nil
}

func (b *breakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.cb.Execute(func() error {
		return b.store.Set(ctx, key, value, ttl)
	})
}

func (b *breakerStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	flusher, ok := b.store.(Flusher)
	if !ok {
		return 0, fmt.Errorf("posting cache store does not support invalidation")
	}
	var deleted int64
	err := b.cb.Execute(func() error {
		var err error
		deleted, err = flusher.FlushByPattern(ctx, pattern)
		return err
	})
	return deleted, err
}
