package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/result"
	apperrors "github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/errors"
)

type stubExecutor struct {
	gotQuery string
	gotOpts  executor.Options
	err      error
}

func (s *stubExecutor) Execute(_ context.Context, query string, opts executor.Options) (*executor.SearchResult, error) {
	s.gotQuery = query
	s.gotOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return &executor.SearchResult{
		Query:    query,
		Strategy: "daat",
		Results:  []result.Scored{{DocID: 1, Key: "second", Score: 4}},
	}, nil
}

type stubCache struct {
	hits, misses int64
	invalidated  bool
	err          error
}

func (c *stubCache) Stats() (int64, int64) { return c.hits, c.misses }

func (c *stubCache) Invalidate(context.Context) error {
	c.invalidated = true
	return c.err
}

func serve(h *Handler, method, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestSearchPassesOptions(t *testing.T) {
	exec := &stubExecutor{}
	rec := serve(New(exec, nil), http.MethodGet, "/api/v1/search?q=a+b&limit=5&strategy=taat&di=idf&dd=bintf&field=title")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a b", exec.gotQuery)
	assert.Equal(t, executor.Options{
		Field:       "title",
		Strategy:    "taat",
		Independent: "idf",
		Dependent:   "bintf",
		Limit:       5,
	}, exec.gotOpts)

	var body executor.SearchResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "second", body.Results[0].Key)
}

func TestSearchBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing q", "/api/v1/search"},
		{"zero limit", "/api/v1/search?q=a&limit=0"},
		{"non-numeric limit", "/api/v1/search?q=a&limit=ten"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(New(&stubExecutor{}, nil), http.MethodGet, tc.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSearchMapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"unknown strategy", fmt.Errorf("%w: %q", apperrors.ErrUnknownStrategy, "wand"), http.StatusBadRequest, `unknown search strategy: "wand"`},
		{"timeout", apperrors.IndexAccess("doc freq", "body", "a", apperrors.ErrTimeout), http.StatusGatewayTimeout, "search timed out"},
		{"index", apperrors.IndexAccess("open postings", "body", "a", errors.New("io")), http.StatusServiceUnavailable, "index unavailable"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "search failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(New(&stubExecutor{err: tc.err}, nil), http.MethodGet, "/api/v1/search?q=a")
			assert.Equal(t, tc.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.wantMsg, body["error"])
		})
	}
}

func TestCacheEndpoints(t *testing.T) {
	rec := serve(New(&stubExecutor{}, nil), http.MethodGet, "/api/v1/cache/stats")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "disabled")

	rec = serve(New(&stubExecutor{}, nil), http.MethodPost, "/api/v1/cache/invalidate")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	c := &stubCache{hits: 3, misses: 1}
	rec = serve(New(&stubExecutor{}, c), http.MethodGet, "/api/v1/cache/stats")
	assert.Contains(t, rec.Body.String(), `"hit_rate":"75.0%"`)

	rec = serve(New(&stubExecutor{}, c), http.MethodPost, "/api/v1/cache/invalidate")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, c.invalidated)

	c.err = errors.New("scan failed")
	rec = serve(New(&stubExecutor{}, c), http.MethodPost, "/api/v1/cache/invalidate")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(New(&stubExecutor{}, c), http.MethodGet, "/api/v1/cache/invalidate")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
