// Package cache keeps whole posting lists in an external key-value store so
// repeated terms skip the underlying source. PostingCache is itself a
// postings.Source and can wrap any other.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/postings"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/resilience"
)

const (
	keyPrefix = "postings:"
	dfPrefix  = "df:"
)

// Store is the subset of pkg/redis.Client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Flusher is implemented by stores that can drop keys by glob pattern.
type Flusher interface {
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Options configures a PostingCache. IsMiss must recognise the store's
// not-found error; any other Get error is logged and treated as a miss.
type Options struct {
	TTL       time.Duration
	Namespace string
	IsMiss    func(error) bool
	Metrics   *metrics.Metrics
}

type PostingCache struct {
	src     postings.Source
	store   Store
	opts    Options
	group   singleflight.Group
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(src postings.Source, store Store, opts Options) (*PostingCache, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	if opts.IsMiss == nil {
		opts.IsMiss = func(error) bool { return false }
	}
	return &PostingCache{
		src:     src,
		store:   store,
		opts:    opts,
		encoder: encoder,
		decoder: decoder,
		logger:  logger.WithComponent("posting-cache"),
	}, nil
}

// DocFreq reads a small sidecar key holding the term's df, falling back to
// the source on a miss. It never decodes a posting list and is not counted
// in Stats.
func (c *PostingCache) DocFreq(ctx context.Context, field, term string) (int, error) {
	key := c.dfKey(field, term)
	if data, ok := c.fetch(ctx, key); ok {
		if df, err := strconv.Atoi(string(data)); err == nil && df >= 0 {
			return df, nil
		}
		c.logger.Error("cache df malformed", "key", key)
	}
	df, err := c.src.DocFreq(ctx, field, term)
	if err != nil {
		return 0, err
	}
	c.put(ctx, key, []byte(strconv.Itoa(df)))
	return df, nil
}

func (c *PostingCache) TotalDocs(ctx context.Context, field string) (int, error) {
	return c.src.TotalDocs(ctx, field)
}

func (c *PostingCache) OpenPostings(ctx context.Context, field, term string) (postings.Cursor, error) {
	list, err := c.load(ctx, field, term)
	if err != nil {
		return nil, err
	}
	return postings.NewSliceCursor(list), nil
}

// Invalidate drops every key in this cache's namespace. It returns an error
// when the store cannot enumerate keys.
func (c *PostingCache) Invalidate(ctx context.Context) error {
	flusher, ok := c.store.(Flusher)
	if !ok {
		return fmt.Errorf("posting cache store does not support invalidation")
	}
	deleted, err := flusher.FlushByPattern(ctx, c.prefix()+"*")
	if err != nil {
		return fmt.Errorf("invalidating posting cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

// Stats counts posting-list fetches served from the store and from the source.
func (c *PostingCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *PostingCache) load(ctx context.Context, field, term string) ([]postings.Posting, error) {
	key := c.buildKey(field, term)
	if list, ok := c.get(ctx, key); ok {
		c.recordHit()
		return list, nil
	}
	c.recordMiss()
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		cur, err := c.src.OpenPostings(ctx, field, term)
		if err != nil {
			return nil, err
		}
		list, err := postings.Drain(cur)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]postings.Posting), nil
}

func (c *PostingCache) fetch(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		switch {
		case c.opts.IsMiss(err):
		case errors.Is(err, resilience.ErrCircuitOpen):
			c.logger.Debug("cache bypassed", "key", key, "error", err)
		default:
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (c *PostingCache) put(ctx context.Context, key string, value []byte) {
	if err := c.store.Set(ctx, key, value, c.opts.TTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *PostingCache) get(ctx context.Context, key string) ([]postings.Posting, bool) {
	data, ok := c.fetch(ctx, key)
	if !ok {
		return nil, false
	}
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		c.logger.Error("cache decompress failed", "key", key, "error", err)
		return nil, false
	}
	var list []postings.Posting
	if err := json.Unmarshal(raw, &list); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return list, true
}

func (c *PostingCache) set(ctx context.Context, key string, list []postings.Posting) {
	if list == nil {
		list = []postings.Posting{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	c.put(ctx, key, c.encoder.EncodeAll(raw, nil))
}

func (c *PostingCache) recordHit() {
	c.hits.Add(1)
	if c.opts.Metrics != nil {
		c.opts.Metrics.CacheHitsTotal.Inc()
	}
}

func (c *PostingCache) recordMiss() {
	c.misses.Add(1)
	if c.opts.Metrics != nil {
		c.opts.Metrics.CacheMissesTotal.Inc()
	}
}

func (c *PostingCache) prefix() string {
	if c.opts.Namespace == "" {
		return keyPrefix
	}
	return keyPrefix + c.opts.Namespace + ":"
}

func (c *PostingCache) buildKey(field, term string) string {
	return c.prefix() + termHash(field, term)
}

func (c *PostingCache) dfKey(field, term string) string {
	return c.prefix() + dfPrefix + termHash(field, term)
}

func termHash(field, term string) string {
	hash := sha256.Sum256([]byte(field + "\x00" + term))
	return fmt.Sprintf("%x", hash[:16])
}
