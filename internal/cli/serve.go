package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/ratelimit"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, root)
		},
	}
}

func serve(ctx context.Context, root *rootOptions) error {
	cfg := root.cfg
	a, err := buildApp(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			slog.Error("closing components", "error", err)
		}
	}()

	chain := newChain(ctx, cfg, a)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = shutdownMetrics(shutdownCtx)
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Handlers still running Execute may Track events; components are closed
	// only after Shutdown has drained them.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening",
		"addr", server.Addr,
		"documents", a.index.DocCount(),
		"strategy", cfg.Search.Strategy,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	<-shutdownDone
	slog.Info("search service stopped")
	return nil
}

// newChain wraps the mux in the middleware stack, outermost last.
func newChain(ctx context.Context, cfg *config.Config, a *app) http.Handler {
	var chain http.Handler = newMux(a)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.Server.RateLimit > 0 {
		limiter := ratelimit.New(cfg.Server.RateLimit, time.Minute)
		go limiter.Run(ctx, 5*time.Minute)
		chain = middleware.RateLimit(limiter)(chain)
	}
	chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins))(chain)
	chain = middleware.Metrics(a.metrics)(chain)
	chain = middleware.RequestID(chain)
	return chain
}

// newMux mounts the search, analytics and health endpoints.
func newMux(a *app) *http.ServeMux {
	checker := health.NewChecker()
	checker.Register("index", health.IndexCheck(a.index.DocCount))
	if a.redis != nil {
		checker.Register("redis", health.OptionalPingCheck(a.redis.Ping))
	}
	if a.keyDB != nil {
		checker.Register("key_store", health.PingCheck(a.keyDB.Ping))
	}

	mux := http.NewServeMux()
	var cacheAdmin handler.CacheAdmin
	if a.cache != nil {
		cacheAdmin = a.cache
	}
	handler.New(a.executor, cacheAdmin).Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(a.aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	return mux
}
