package ranker

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/postings"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/result"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/topn"
)

// DocAtATime keeps one cursor per query term occurrence and always scores
// the smallest document any cursor is on, completing that document before
// moving on. Its working set is one cursor per term.
type DocAtATime struct{}

func (DocAtATime) Name() string { return NameDocAtATime }

func (s DocAtATime) Search(ctx context.Context, req Request) ([]result.Scored, error) {
	results, _, err := s.Profile(ctx, req)
	return results, err
}

type termCursor struct {
	scorer termScorer
	cur    postings.Cursor
	doc    int
}

func (DocAtATime) Profile(ctx context.Context, req Request) ([]result.Scored, Stats, error) {
	var stats Stats
	if err := validate(req); err != nil {
		return nil, stats, err
	}
	terms, err := liveTerms(ctx, req)
	if err != nil {
		return nil, stats, err
	}
	stats.Terms = len(terms)

	cursors := make([]termCursor, len(terms))
	for i, qt := range terms {
		scorer, err := newTermScorer(ctx, req, qt.term)
		if err != nil {
			return nil, stats, err
		}
		cur, err := scorer.open()
		if err != nil {
			return nil, stats, err
		}
		doc, err := scorer.advance(cur, -1)
		if err != nil {
			return nil, stats, err
		}
		cursors[i] = termCursor{scorer: scorer, cur: cur, doc: doc}
	}
	stats.PeakAuxiliary = len(cursors)

	sel := topn.New(req.N)
	for {
		smallest := postings.NoMoreDocs
		for _, tc := range cursors {
			smallest = min(smallest, tc.doc)
		}
		if smallest == postings.NoMoreDocs {
			break
		}
		var score float64
		for i := range cursors {
			tc := &cursors[i]
			if tc.doc != smallest {
				continue
			}
			contribution, err := tc.scorer.score(tc.cur)
			if err != nil {
				return nil, stats, err
			}
			score += contribution
			stats.PostingsVisited++
			if tc.doc, err = tc.scorer.advance(tc.cur, tc.doc); err != nil {
				return nil, stats, err
			}
		}
		sel.Offer(smallest, score)
		stats.Candidates++
	}
	return sel.Results(), stats, nil
}
