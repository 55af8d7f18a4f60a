package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWorstStatusWins(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		want   Status
	}{
		{"no checks", nil, StatusUp},
		{"all up", map[string]Check{
			"index": IndexCheck(func() int { return 3 }),
		}, StatusUp},
		{"degraded cache", map[string]Check{
			"index": IndexCheck(func() int { return 3 }),
			"redis": OptionalPingCheck(func(context.Context) error { return errors.New("refused") }),
		}, StatusDegraded},
		{"empty index", map[string]Check{
			"index": IndexCheck(func() int { return 0 }),
			"redis": OptionalPingCheck(func(context.Context) error { return errors.New("refused") }),
		}, StatusDown},
		{"key store down", map[string]Check{
			"keystore": PingCheck(func(context.Context) error { return errors.New("closed") }),
		}, StatusDown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewChecker()
			for name, check := range tc.checks {
				c.Register(name, check)
			}
			report := c.Run(context.Background())
			assert.Equal(t, tc.want, report.Status)
			assert.Len(t, report.Components, len(tc.checks))
		})
	}
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("index", IndexCheck(func() int { return 0 }))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, "index is empty", report.Components["index"].Message)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyHandlerDegradedStillServes(t *testing.T) {
	c := NewChecker()
	c.Register("index", IndexCheck(func() int { return 2 }))
	c.Register("redis", OptionalPingCheck(func(context.Context) error { return errors.New("refused") }))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "2 documents", report.Components["index"].Message)
}
