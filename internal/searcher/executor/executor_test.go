package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/result"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/metrics"
)

type recordingTracker struct {
	mu     sync.Mutex
	events []analytics.SearchEvent
}

func (r *recordingTracker) Track(event analytics.SearchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTracker) last() analytics.SearchEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type fixture struct {
	exec    *Executor
	tracker *recordingTracker
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, mutate func(*config.SearchConfig)) fixture {
	t.Helper()
	analyzer := tokenizer.New(tokenizer.Options{KeepStopWords: true})
	idx := index.NewMemoryIndex(analyzer)
	idx.AddDocument(index.Document{Key: "first", Fields: map[string]string{"body": "a a"}})
	idx.AddDocument(index.Document{Key: "second", Fields: map[string]string{"body": "a b b b"}})

	cfg := config.Default().Search
	cfg.Independent = "uniform"
	cfg.Dependent = "rawtf"
	if mutate != nil {
		mutate(&cfg)
	}
	f := fixture{
		tracker: &recordingTracker{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.exec = New(idx, cfg, Deps{
		Resolver: idx,
		Analyzer: analyzer,
		Metrics:  f.metrics,
		Tracker:  f.tracker,
	})
	return f
}

func TestExecuteRanksWithEitherStrategy(t *testing.T) {
	for _, strategy := range []string{"taat", "daat"} {
		t.Run(strategy, func(t *testing.T) {
			f := newFixture(t, nil)
			res, err := f.exec.Execute(context.Background(), "a b", Options{Strategy: strategy, Limit: 2})
			require.NoError(t, err)

			require.Len(t, res.Results, 2)
			assert.Equal(t, result.Scored{DocID: 1, Key: "second", Score: 4}, res.Results[0])
			assert.Equal(t, result.Scored{DocID: 0, Key: "first", Score: 2}, res.Results[1])
			assert.Equal(t, strategy, res.Strategy)
			assert.Equal(t, []string{"a", "b"}, res.Terms)
			assert.Equal(t, 2, res.Stats.Terms)

			ev := f.tracker.last()
			assert.Equal(t, analytics.OutcomeOK, ev.Outcome)
			assert.Equal(t, 2, ev.Returned)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SearchQueriesTotal.WithLabelValues(strategy, "ok")))
		})
	}
}

func TestExecuteLimits(t *testing.T) {
	f := newFixture(t, func(c *config.SearchConfig) {
		c.DefaultLimit = 1
		c.MaxResults = 1
	})
	res, err := f.exec.Execute(context.Background(), "a", Options{})
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
	assert.Equal(t, 1, res.Limit)

	res, err = f.exec.Execute(context.Background(), "a", Options{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
	assert.Equal(t, 1, res.Limit)
}

func TestExecuteNegativeLimit(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.exec.Execute(context.Background(), "a", Options{Limit: -1})
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
}

func TestExecuteZeroResult(t *testing.T) {
	f := newFixture(t, nil)
	for _, q := range []string{"zzz", "", "   "} {
		res, err := f.exec.Execute(context.Background(), q, Options{})
		require.NoError(t, err)
		require.NotNil(t, res.Results)
		assert.Empty(t, res.Results)
		assert.Equal(t, analytics.OutcomeZeroResult, f.tracker.last().Outcome)
	}
}

func TestExecuteEmptyQuerySkipsSource(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.exec.Execute(ctx, "  ", Options{})
	require.NoError(t, err, "an empty plan must not reach the cancelled source")
	require.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
	assert.Contains(t, res.Phases, "analyze")
	assert.NotContains(t, res.Phases, "rank")
	assert.Equal(t, analytics.OutcomeZeroResult, f.tracker.last().Outcome)

	_, err = f.exec.Execute(context.Background(), "", Options{Strategy: "wand"})
	require.ErrorIs(t, err, apperrors.ErrUnknownStrategy)
	_, err = f.exec.Execute(context.Background(), "", Options{Limit: -1})
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestExecuteUnknownNames(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.exec.Execute(context.Background(), "a", Options{Strategy: "wand"})
	require.ErrorIs(t, err, apperrors.ErrUnknownStrategy)
	ev := f.tracker.last()
	assert.Equal(t, analytics.OutcomeError, ev.Outcome)
	assert.NotEmpty(t, ev.Error)

	_, err = f.exec.Execute(context.Background(), "a", Options{Independent: "bm25"})
	require.ErrorIs(t, err, apperrors.ErrUnknownWeight)

	_, err = f.exec.Execute(context.Background(), "a", Options{Dependent: "sqrt"})
	require.ErrorIs(t, err, apperrors.ErrUnknownWeight)
}

func TestExecuteCancelled(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.exec.Execute(ctx, "a", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, apperrors.ErrIndexAccess))
}

func TestExecuteDeadline(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := f.exec.Execute(ctx, "a", Options{})
	require.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.Equal(t, 504, apperrors.HTTPStatusCode(err))
}

func TestExecuteWeightsFromConfig(t *testing.T) {
	f := newFixture(t, func(c *config.SearchConfig) {
		c.Dependent = "bintf"
	})
	res, err := f.exec.Execute(context.Background(), "a b", Options{})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "bintf", res.Dependent)
	assert.InDelta(t, 2.0, res.Results[0].Score, 1e-12)
	assert.InDelta(t, 1.0, res.Results[1].Score, 1e-12)
}

func TestExecuteTagsRequestID(t *testing.T) {
	f := newFixture(t, nil)
	ctx := logger.WithRequestID(context.Background(), "req-42")
	_, err := f.exec.Execute(ctx, "a", Options{})
	require.NoError(t, err)
	assert.Equal(t, "req-42", f.tracker.last().RequestID)
}

func TestExecuteRecordsPhases(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.exec.Execute(context.Background(), "a", Options{})
	require.NoError(t, err)
	assert.Len(t, res.Phases, 3)
	for _, phase := range []string{"analyze", "rank", "resolve_keys"} {
		assert.Contains(t, res.Phases, phase)
	}
}
