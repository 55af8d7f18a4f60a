package postings

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/errors"
)

// checkEvery is how many cursor advances pass between context checks.
const checkEvery = 1024

// Guard wraps src so that every source call, and every checkEvery cursor
// advances, first checks ctx. The ranking engines have no cancellation
// points of their own; this is how callers bound a search in time.
func Guard(src Source) Source {
	return &guarded{src: src}
}

type guarded struct {
	src Source
}

func (g *guarded) DocFreq(ctx context.Context, field, term string) (int, error) {
	if err := contextErr(ctx); err != nil {
		return 0, err
	}
	return g.src.DocFreq(ctx, field, term)
}

func (g *guarded) TotalDocs(ctx context.Context, field string) (int, error) {
	if err := contextErr(ctx); err != nil {
		return 0, err
	}
	return g.src.TotalDocs(ctx, field)
}

func (g *guarded) OpenPostings(ctx context.Context, field, term string) (Cursor, error) {
	if err := contextErr(ctx); err != nil {
		return nil, err
	}
	cur, err := g.src.OpenPostings(ctx, field, term)
	if err != nil {
		return nil, err
	}
	return &guardedCursor{Cursor: cur, ctx: ctx}, nil
}

type guardedCursor struct {
	Cursor
	ctx   context.Context
	steps int
}

func (c *guardedCursor) NextDoc() (int, error) {
	c.steps++
	if c.steps%checkEvery == 0 {
		if err := contextErr(c.ctx); err != nil {
			return 0, err
		}
	}
	return c.Cursor.NextDoc()
}

func contextErr(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("search budget exhausted: %w", apperrors.ErrTimeout)
	default:
		return fmt.Errorf("search cancelled: %w", err)
	}
}
