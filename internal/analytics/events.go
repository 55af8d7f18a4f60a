package analytics

import "time"

type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeZeroResult Outcome = "zero_result"
	OutcomeError      Outcome = "error"
)

// SearchEvent describes one executed query.
type SearchEvent struct {
	Outcome         Outcome   `json:"outcome"`
	Query           string    `json:"query"`
	Terms           []string  `json:"terms"`
	Field           string    `json:"field"`
	Strategy        string    `json:"strategy"`
	Independent     string    `json:"independent"`
	Dependent       string    `json:"dependent"`
	Limit           int       `json:"limit"`
	Candidates      int       `json:"candidates"`
	PostingsVisited int       `json:"postings_visited"`
	Returned        int       `json:"returned"`
	LatencyMs       int64     `json:"latency_ms"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"request_id,omitempty"`
}
