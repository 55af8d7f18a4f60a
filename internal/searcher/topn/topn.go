package topn

import (
	"container/heap"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/result"
)

// Selector keeps the n best-scoring documents offered to it. Once full, a
// candidate is admitted only if it strictly beats the current minimum.
type Selector struct {
	n int
	h scoredHeap
}

// initialCap bounds the up-front allocation; the heap grows past it on
// demand, so n may be as large as math.MaxInt.
const initialCap = 1024

// New returns a Selector with capacity n. Callers validate n >= 1.
func New(n int) *Selector {
	return &Selector{
		n: n,
		h: make(scoredHeap, 0, min(n, initialCap)),
	}
}

// Offer considers one document and reports whether it was admitted.
func (s *Selector) Offer(docID int, score float64) bool {
	if s.h.Len() < s.n {
		heap.Push(&s.h, result.Scored{DocID: docID, Score: score})
		return true
	}
	if score <= s.h[0].Score {
		return false
	}
	s.h[0] = result.Scored{DocID: docID, Score: score}
	heap.Fix(&s.h, 0)
	return true
}

func (s *Selector) Len() int { return s.h.Len() }

// Results drains the selector and returns its contents by descending score.
// Order among equal scores is unspecified.
func (s *Selector) Results() []result.Scored {
	out := make([]result.Scored, s.h.Len())
	copy(out, s.h)
	s.h = s.h[:0]
	sort.Slice(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

type scoredHeap []result.Scored

func (h scoredHeap) Len() int { return len(h) }

func (h scoredHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }

func (h scoredHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredHeap) Push(x interface{}) {
	*h = append(*h, x.(result.Scored))
}

func (h *scoredHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
