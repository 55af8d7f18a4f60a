package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/logger"
)

type SearchExecutor interface {
	Execute(ctx context.Context, query string, opts executor.Options) (*executor.SearchResult, error)
}

// CacheAdmin is satisfied by *cache.PostingCache.
type CacheAdmin interface {
	Stats() (hits, misses int64)
	Invalidate(ctx context.Context) error
}

type Handler struct {
	executor SearchExecutor
	cache    CacheAdmin
	logger   *slog.Logger
}

// New builds the search handler. queryCache may be nil when no posting cache
// is configured.
func New(exec SearchExecutor, queryCache CacheAdmin) *Handler {
	return &Handler{
		executor: exec,
		cache:    queryCache,
		logger:   logger.WithComponent("search-handler"),
	}
}

// Register mounts the search and cache endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search handles GET /api/v1/search?q=&limit=&strategy=&di=&dd=&field=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	params := r.URL.Query()

	query := params.Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	opts := executor.Options{
		Field:       params.Get("field"),
		Strategy:    params.Get("strategy"),
		Independent: params.Get("di"),
		Dependent:   params.Get("dd"),
	}
	if limitStr := params.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = parsed
	}

	result, err := h.executor.Execute(ctx, query, opts)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("search execution failed", "query", query, "status", status, "error", err)
		h.writeError(w, status, errorMessage(status, err))
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// errorMessage exposes client errors verbatim and hides server-side detail.
func errorMessage(status int, err error) string {
	switch {
	case status < http.StatusInternalServerError:
		return err.Error()
	case status == http.StatusGatewayTimeout:
		return "search timed out"
	case status == http.StatusServiceUnavailable:
		return "index unavailable"
	default:
		return "search failed"
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
