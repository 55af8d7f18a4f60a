// Package tracing times the phases of a single operation. Spans nest through
// the context and render as one structured slog value.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed phase. Children are phases started under it.
type Span struct {
	Name    string
	TraceID string

	mu       sync.Mutex
	start    time.Time
	duration time.Duration
	ended    bool
	attrs    []slog.Attr
	children []*Span
}

// Start opens a span under the one in ctx, or a root span with traceID when
// ctx has none.
func Start(ctx context.Context, name, traceID string) (context.Context, *Span) {
	span := &Span{Name: name, TraceID: traceID, start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, span)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

// End fixes the span's duration. Later calls are no-ops.
func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		s.duration = time.Since(s.start)
		s.ended = true
	}
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		return time.Since(s.start)
	}
	return s.duration
}

// Phases maps each direct child's name to its duration in milliseconds.
func (s *Span) Phases() map[string]float64 {
	s.mu.Lock()
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()
	phases := make(map[string]float64, len(children))
	for _, c := range children {
		phases[c.Name] += millis(c.Duration())
	}
	return phases
}

// LogValue renders the span tree as nested groups keyed by span name.
func (s *Span) LogValue() slog.Value {
	d := s.Duration()
	s.mu.Lock()
	attrs := make([]slog.Attr, 0, len(s.attrs)+len(s.children)+2)
	if s.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", s.TraceID))
	}
	attrs = append(attrs, slog.Float64("ms", millis(d)))
	attrs = append(attrs, s.attrs...)
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()
	for _, c := range children {
		attrs = append(attrs, slog.Attr{Key: c.Name, Value: c.LogValue()})
	}
	return slog.GroupValue(attrs...)
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
