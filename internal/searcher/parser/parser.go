package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/indexer/tokenizer"
)

// QueryPlan is an analysed query. Terms keeps query order and repeated
// words, since every occurrence contributes to a document's score.
type QueryPlan struct {
	Terms    []string
	RawQuery string
}

// Empty reports whether no term survived analysis.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

// ParseWith analyses query with a; it must match the analyzer the index was
// built with or terms will not line up.
func ParseWith(a *tokenizer.Analyzer, query string) *QueryPlan {
	plan := &QueryPlan{
		Terms:    make([]string, 0),
		RawQuery: query,
	}
	if strings.TrimSpace(query) == "" {
		return plan
	}
	plan.Terms = append(plan.Terms, a.Terms(query)...)
	return plan
}
