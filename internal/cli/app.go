package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/docstore"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/postings"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/result"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/sqldb"
)

// connectRetry bounds how long startup waits for an external service.
var connectRetry = resilience.Backoff{
	Attempts: 3,
	Initial:  200 * time.Millisecond,
	Max:      2 * time.Second,
	Jitter:   0.1,
}

// app holds every wired component. Optional ones are nil when disabled.
type app struct {
	cfg        *config.Config
	index      *index.MemoryIndex
	cache      *cache.PostingCache
	redis      *pkgredis.Client
	keyDB      *sqldb.Client
	producer   *kafka.Producer
	aggregator *analytics.Aggregator
	collector  *analytics.Collector
	metrics    *metrics.Metrics
	executor   *executor.Executor

	// corpusDigest is the hex sha256 of the loaded corpus bytes.
	corpusDigest string
}

func buildApp(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (_ *app, err error) {
	a := &app{
		cfg:     cfg,
		index:   index.NewMemoryIndex(nil),
		metrics: metrics.New(reg),
	}
	defer func() {
		if err != nil {
			_ = a.close()
		}
	}()

	if err := a.loadCorpus(); err != nil {
		return nil, err
	}

	var source postings.Source = a.index
	if cfg.Redis.Enabled {
		var client *pkgredis.Client
		err := resilience.Retry(ctx, "redis connect", connectRetry, func(context.Context) error {
			var err error
			client, err = pkgredis.NewClient(cfg.Redis)
			return err
		})
		if err != nil {
			slog.Warn("redis unavailable, posting cache disabled", "error", err)
		} else {
			a.redis = client
			breaker := resilience.NewCircuitBreaker("posting-cache", resilience.CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
				OnStateChange: func(_, to resilience.State) {
					a.metrics.CacheBreakerState.Set(float64(to))
				},
			})
			store := cache.WithBreaker(client, breaker, pkgredis.IsNilError)
			pc, err := cache.New(a.index, store, cache.Options{
				TTL:       cfg.Redis.CacheTTL,
				Namespace: corpusNamespace(a.corpusDigest),
				IsMiss:    pkgredis.IsNilError,
				Metrics:   a.metrics,
			})
			if err != nil {
				return nil, err
			}
			a.cache = pc
			source = pc
			slog.Info("posting cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var resolver result.KeyResolver = a.index
	if cfg.KeyStore.Enabled {
		store, err := a.openKeyStore(ctx)
		if err != nil {
			return nil, err
		}
		resolver = store
	}

	a.aggregator = analytics.NewAggregator()
	var publisher analytics.Publisher
	if cfg.Kafka.Enabled {
		a.producer = kafka.NewProducer(cfg.Kafka)
		publisher = a.producer
		slog.Info("search events enabled", "topic", cfg.Kafka.SearchEvents)
	}
	a.collector = analytics.NewCollector(publisher, a.aggregator, 10000)
	a.collector.Start(ctx)

	a.executor = executor.New(source, cfg.Search, executor.Deps{
		Resolver: resolver,
		Metrics:  a.metrics,
		Tracker:  a.collector,
	})
	return a, nil
}

func (a *app) loadCorpus() error {
	path := a.cfg.Corpus.Path
	if path == "" {
		slog.Warn("no corpus configured, index is empty")
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	n, err := a.index.LoadJSONL(io.TeeReader(f, h))
	if err != nil {
		return fmt.Errorf("loading corpus %s: %w", path, err)
	}
	a.corpusDigest = hex.EncodeToString(h.Sum(nil))
	a.metrics.IndexedDocuments.Set(float64(a.index.DocCount()))
	slog.Info("corpus indexed", "path", path, "documents", n, "fields", len(a.index.Stats()))
	return nil
}

// openKeyStore writes the current id-to-key mapping to the SQL key store and
// returns it as the resolver.
func (a *app) openKeyStore(ctx context.Context) (*docstore.Store, error) {
	var db *sqldb.Client
	err := resilience.Retry(ctx, "key store connect", connectRetry, func(context.Context) error {
		var err error
		db, err = sqldb.New(a.cfg.KeyStore)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("opening key store: %w", err)
	}
	a.keyDB = db
	store := docstore.New(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	keys := a.index.Keys()
	entries := make([]docstore.Entry, len(keys))
	for id, key := range keys {
		entries[id] = docstore.Entry{DocID: id, Key: key}
	}
	if err := store.Put(ctx, entries); err != nil {
		return nil, fmt.Errorf("syncing document keys: %w", err)
	}
	return store, nil
}

func (a *app) close() error {
	var errs []error
	if a.collector != nil {
		a.collector.Close()
	}
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.keyDB != nil {
		errs = append(errs, a.keyDB.Close())
	}
	return errors.Join(errs...)
}

// corpusNamespace separates cache entries of different corpus contents, so
// a file edited in place never reads postings cached for its old bytes.
func corpusNamespace(digest string) string {
	if digest == "" {
		return "empty"
	}
	return digest[:16]
}
