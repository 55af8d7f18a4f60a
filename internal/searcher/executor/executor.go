// Package executor runs a raw query end to end: analysis, strategy and
// weight selection, a time-bounded ranked search, key resolution, and the
// metrics, log line and analytics event that describe it.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/postings"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/result"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/weight"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/tracing"
)

type SearchResult struct {
	Query       string          `json:"query"`
	Terms       []string        `json:"terms"`
	Field       string          `json:"field"`
	Strategy    string          `json:"strategy"`
	Independent string          `json:"independent"`
	Dependent   string          `json:"dependent"`
	Limit       int             `json:"limit"`
	Results     []result.Scored `json:"results"`
	Stats       ranker.Stats    `json:"stats"`
	TookMs      float64         `json:"took_ms"`
	// Phases is the time spent in each step of the query, in milliseconds.
	Phases map[string]float64 `json:"phases,omitempty"`
}

// Options override the configured defaults for one query. Zero values keep
// the default; Limit above the configured maximum is clamped to it.
type Options struct {
	Field       string
	Strategy    string
	Independent string
	Dependent   string
	Limit       int
}

// Tracker receives one event per executed query.
type Tracker interface {
	Track(event analytics.SearchEvent)
}

// Deps are the optional collaborators of an Executor.
type Deps struct {
	Resolver result.KeyResolver
	Analyzer *tokenizer.Analyzer
	Metrics  *metrics.Metrics
	Tracker  Tracker
}

type Executor struct {
	source postings.Source
	cfg    config.SearchConfig
	deps   Deps
	logger *slog.Logger
}

func New(source postings.Source, cfg config.SearchConfig, deps Deps) *Executor {
	if deps.Analyzer == nil {
		deps.Analyzer = tokenizer.Default
	}
	return &Executor{
		source: source,
		cfg:    cfg,
		deps:   deps,
		logger: logger.WithComponent("query-executor"),
	}
}

func (e *Executor) Execute(ctx context.Context, query string, opts Options) (*SearchResult, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "search", logger.RequestIDFromContext(ctx))
	opts = e.withDefaults(opts)
	_, analyze := tracing.Start(ctx, "analyze", "")
	plan := parser.ParseWith(e.deps.Analyzer, query)
	analyze.End()

	res := &SearchResult{
		Query:       plan.RawQuery,
		Terms:       plan.Terms,
		Field:       opts.Field,
		Strategy:    opts.Strategy,
		Independent: opts.Independent,
		Dependent:   opts.Dependent,
		Limit:       opts.Limit,
	}
	err := e.run(ctx, plan, opts, res)
	span.End()
	res.TookMs = float64(time.Since(start).Microseconds()) / 1000
	res.Phases = span.Phases()
	e.observe(ctx, res, span, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Executor) run(ctx context.Context, plan *parser.QueryPlan, opts Options, res *SearchResult) error {
	strategy, err := ranker.ByName(opts.Strategy)
	if err != nil {
		return err
	}
	res.Strategy = strategy.Name()
	independent, err := weight.Independent(opts.Independent)
	if err != nil {
		return err
	}
	dependent, err := weight.Dependent(opts.Dependent, weight.Params{
		LogTFBase: e.cfg.LogTFBase,
		BM25K1:    e.cfg.BM25K1,
	})
	if err != nil {
		return err
	}
	// Nothing survived analysis: no source access needed. An invalid limit
	// still goes to the ranker so it is reported.
	if plan.Empty() && opts.Limit >= 1 {
		res.Results = []result.Scored{}
		return nil
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	_, rank := tracing.Start(ctx, "rank", "")
	rank.SetAttr("strategy", res.Strategy)
	results, stats, err := strategy.Profile(ctx, ranker.Request{
		Source:      postings.Guard(e.source),
		Field:       opts.Field,
		Terms:       plan.Terms,
		N:           opts.Limit,
		Independent: independent,
		Dependent:   dependent,
	})
	rank.End()
	if err != nil {
		return fmt.Errorf("executing %s search: %w", res.Strategy, err)
	}
	_, resolve := tracing.Start(ctx, "resolve_keys", "")
	err = result.AttachKeys(ctx, e.deps.Resolver, results)
	resolve.End()
	if err != nil {
		return err
	}
	if results == nil {
		results = []result.Scored{}
	}
	res.Results = results
	res.Stats = stats
	return nil
}

func (e *Executor) withDefaults(opts Options) Options {
	if opts.Field == "" {
		opts.Field = e.cfg.Field
	}
	if opts.Strategy == "" {
		opts.Strategy = e.cfg.Strategy
	}
	if opts.Independent == "" {
		opts.Independent = e.cfg.Independent
	}
	if opts.Dependent == "" {
		opts.Dependent = e.cfg.Dependent
	}
	if opts.Limit == 0 {
		opts.Limit = e.cfg.DefaultLimit
	}
	if e.cfg.MaxResults > 0 && opts.Limit > e.cfg.MaxResults {
		opts.Limit = e.cfg.MaxResults
	}
	return opts
}

func (e *Executor) observe(ctx context.Context, res *SearchResult, span *tracing.Span, err error) {
	outcome := analytics.OutcomeOK
	switch {
	case err != nil:
		outcome = analytics.OutcomeError
	case len(res.Results) == 0:
		outcome = analytics.OutcomeZeroResult
	}

	if m := e.deps.Metrics; m != nil {
		m.SearchQueriesTotal.WithLabelValues(res.Strategy, string(outcome)).Inc()
		if err == nil {
			m.SearchLatency.WithLabelValues(res.Strategy).Observe(res.TookMs / 1000)
			m.SearchResultsCount.Observe(float64(len(res.Results)))
			m.SearchPostingsVisited.WithLabelValues(res.Strategy).Observe(float64(res.Stats.PostingsVisited))
			m.SearchPeakAuxiliary.WithLabelValues(res.Strategy).Observe(float64(res.Stats.PeakAuxiliary))
		}
	}

	log := e.logger
	requestID := logger.RequestIDFromContext(ctx)
	if requestID != "" {
		log = log.With("request_id", requestID)
	}
	if err != nil {
		log.Warn("query failed",
			"query", res.Query,
			"strategy", res.Strategy,
			"error", err,
		)
	} else {
		log.Info("query executed",
			"query", res.Query,
			"strategy", res.Strategy,
			"terms", res.Terms,
			"surviving_terms", res.Stats.Terms,
			"candidates", res.Stats.Candidates,
			"results", len(res.Results),
			"took_ms", res.TookMs,
		)
	}
	log.Debug("query trace", "trace", span)

	if e.deps.Tracker != nil {
		event := analytics.SearchEvent{
			Outcome:         outcome,
			Query:           res.Query,
			Terms:           res.Terms,
			Field:           res.Field,
			Strategy:        res.Strategy,
			Independent:     res.Independent,
			Dependent:       res.Dependent,
			Limit:           res.Limit,
			Candidates:      res.Stats.Candidates,
			PostingsVisited: res.Stats.PostingsVisited,
			Returned:        len(res.Results),
			LatencyMs:       int64(res.TookMs),
			RequestID:       requestID,
		}
		if err != nil {
			event.Error = err.Error()
		}
		e.deps.Tracker.Track(event)
	}
}
