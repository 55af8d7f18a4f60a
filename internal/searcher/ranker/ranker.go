// Package ranker implements best-match top-N retrieval over a postings.Source.
// Two strategies are provided: TermAtATime merges one posting list at a time
// into a sorted score accumulator, and DocAtATime advances one cursor per
// query term in lockstep. Both return the same documents and scores for the
// same source snapshot, query, weights and n.
package ranker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/postings"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/result"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/weight"
	apperrors "github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/errors"
)

// Request describes one search. Terms is the analyzed query in order;
// repeated terms each contribute to the score.
type Request struct {
	Source      postings.Source
	Field       string
	Terms       []string
	N           int
	Independent weight.DocumentIndependent
	Dependent   weight.DocumentDependent
}

// Stats describes the work one search performed.
type Stats struct {
	// Terms is the number of query term occurrences with a non-zero df.
	Terms int `json:"terms"`
	// PostingsVisited counts posting entries scored.
	PostingsVisited int `json:"postings_visited"`
	// Candidates counts documents offered to the top-N selector.
	Candidates int `json:"candidates"`
	// PeakAuxiliary is the largest auxiliary structure held at once: the
	// accumulator length for TermAtATime, the open cursor count for
	// DocAtATime.
	PeakAuxiliary int `json:"peak_auxiliary"`
}

// Strategy is a best-match search implementation.
type Strategy interface {
	Name() string
	Search(ctx context.Context, req Request) ([]result.Scored, error)
	Profile(ctx context.Context, req Request) ([]result.Scored, Stats, error)
}

const (
	NameTermAtATime = "taat"
	NameDocAtATime  = "daat"
)

// ByName returns the strategy registered under name.
func ByName(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case NameTermAtATime, "term-at-a-time":
		return TermAtATime{}, nil
	case NameDocAtATime, "doc-at-a-time", "":
		return DocAtATime{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownStrategy, name)
	}
}

func validate(req Request) error {
	switch {
	case req.N < 1:
		return apperrors.InvalidArgument("n must be at least 1, got %d", req.N)
	case req.Terms == nil:
		return apperrors.InvalidArgument("query terms must not be nil")
	case req.Source == nil:
		return apperrors.InvalidArgument("posting source must not be nil")
	case req.Independent == nil || req.Dependent == nil:
		return apperrors.InvalidArgument("both weighting functions are required")
	}
	return nil
}

// queryTerm is one surviving query term occurrence.
type queryTerm struct {
	term string
	df   int
}

// liveTerms looks up the document frequency of each distinct term once and
// returns every occurrence whose df is non-zero, in query order.
func liveTerms(ctx context.Context, req Request) ([]queryTerm, error) {
	dfs := make(map[string]int, len(req.Terms))
	live := make([]queryTerm, 0, len(req.Terms))
	for _, term := range req.Terms {
		df, seen := dfs[term]
		if !seen {
			var err error
			df, err = req.Source.DocFreq(ctx, req.Field, term)
			if err != nil {
				return nil, apperrors.IndexAccess("doc freq", req.Field, term, err)
			}
			dfs[term] = df
		}
		if df > 0 {
			live = append(live, queryTerm{term: term, df: df})
		}
	}
	return live, nil
}

// byDocFreq orders terms by ascending df; ties keep query order.
func byDocFreq(terms []queryTerm) {
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].df < terms[j].df
	})
}

// termScorer computes the contribution of one query term occurrence to the
// document its cursor is positioned on.
type termScorer struct {
	ctx         context.Context
	src         postings.Source
	dependent   weight.DocumentDependent
	field, term string
	independent float64
}

func newTermScorer(ctx context.Context, req Request, term string) (termScorer, error) {
	w, err := req.Independent.Weight(ctx, req.Source, req.Field, term)
	if err != nil {
		return termScorer{}, apperrors.IndexAccess("independent weight", req.Field, term, err)
	}
	return termScorer{
		ctx:         ctx,
		src:         req.Source,
		dependent:   req.Dependent,
		field:       req.Field,
		term:        term,
		independent: w,
	}, nil
}

func (s termScorer) score(cur postings.Cursor) (float64, error) {
	w, err := s.dependent.Weight(s.ctx, s.src, cur, s.field, s.term)
	if err != nil {
		return 0, apperrors.IndexAccess("dependent weight", s.field, s.term, err)
	}
	return s.independent * w, nil
}

func (s termScorer) open() (postings.Cursor, error) {
	cur, err := s.src.OpenPostings(s.ctx, s.field, s.term)
	if err != nil {
		return nil, apperrors.IndexAccess("open postings", s.field, s.term, err)
	}
	return cur, nil
}

// advance moves cur forward. A list that is not strictly ascending is
// reported as a corrupt index.
func (s termScorer) advance(cur postings.Cursor, prev int) (int, error) {
	doc, err := cur.NextDoc()
	if err != nil {
		return 0, apperrors.IndexAccess("next doc", s.field, s.term, err)
	}
	if doc != postings.NoMoreDocs && doc <= prev {
		return 0, apperrors.IndexAccess("next doc", s.field, s.term,
			fmt.Errorf("posting list out of order: doc %d after %d", doc, prev))
	}
	return doc, nil
}
