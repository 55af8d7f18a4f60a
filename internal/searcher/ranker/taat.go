package ranker

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/postings"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/result"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/topn"
)

// TermAtATime scores one query term at a time, rarest first, merging each
// posting list into an ascending accumulator of partial scores. The
// accumulator can grow to the sum of the terms' document frequencies.
type TermAtATime struct{}

func (TermAtATime) Name() string { return NameTermAtATime }

func (s TermAtATime) Search(ctx context.Context, req Request) ([]result.Scored, error) {
	results, _, err := s.Profile(ctx, req)
	return results, err
}

func (TermAtATime) Profile(ctx context.Context, req Request) ([]result.Scored, Stats, error) {
	var stats Stats
	if err := validate(req); err != nil {
		return nil, stats, err
	}
	terms, err := liveTerms(ctx, req)
	if err != nil {
		return nil, stats, err
	}
	byDocFreq(terms)
	stats.Terms = len(terms)

	var acc accumulator
	for _, qt := range terms {
		scorer, err := newTermScorer(ctx, req, qt.term)
		if err != nil {
			return nil, stats, err
		}
		cur, err := scorer.open()
		if err != nil {
			return nil, stats, err
		}
		var visited int
		acc, visited, err = merge(acc, cur, qt.df, scorer)
		if err != nil {
			return nil, stats, err
		}
		stats.PostingsVisited += visited
		stats.PeakAuxiliary = max(stats.PeakAuxiliary, acc.len())
	}

	sel := topn.New(req.N)
	for i, doc := range acc.docs {
		sel.Offer(doc, acc.scores[i])
	}
	stats.Candidates = acc.len()
	return sel.Results(), stats, nil
}

// accumulator holds partial scores in strictly ascending document order.
type accumulator struct {
	docs   []int
	scores []float64
}

func (a accumulator) len() int { return len(a.docs) }

func (a *accumulator) add(doc int, score float64) {
	a.docs = append(a.docs, doc)
	a.scores = append(a.scores, score)
}

// merge walks prev and cur in ascending document order and returns a new
// accumulator holding the union of both, with the term's contribution added
// wherever cur has an entry. It also returns the number of postings scored.
func merge(prev accumulator, cur postings.Cursor, df int, scorer termScorer) (accumulator, int, error) {
	size := prev.len() + df
	next := accumulator{
		docs:   make([]int, 0, size),
		scores: make([]float64, 0, size),
	}
	visited := 0
	doc, err := scorer.advance(cur, -1)
	if err != nil {
		return accumulator{}, 0, err
	}
	i := 0
	for doc != postings.NoMoreDocs || i < prev.len() {
		switch {
		case i == prev.len() || doc < prev.docs[i]:
			contribution, err := scorer.score(cur)
			if err != nil {
				return accumulator{}, 0, err
			}
			next.add(doc, contribution)
			visited++
			if doc, err = scorer.advance(cur, doc); err != nil {
				return accumulator{}, 0, err
			}
		case doc > prev.docs[i]:
			next.add(prev.docs[i], prev.scores[i])
			i++
		default:
			contribution, err := scorer.score(cur)
			if err != nil {
				return accumulator{}, 0, err
			}
			next.add(doc, prev.scores[i]+contribution)
			visited++
			i++
			if doc, err = scorer.advance(cur, doc); err != nil {
				return accumulator{}, 0, err
			}
		}
	}
	return next, visited, nil
}
