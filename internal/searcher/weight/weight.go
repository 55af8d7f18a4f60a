// Package weight provides the two scoring contracts used by the ranking
// engines. A document-independent weight (such as IDF) is computed once per
// query term; a document-dependent weight (such as TF) is computed for every
// posting entry visited. The engines multiply the two.
package weight

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/postings"
	apperrors "github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/errors"
)

// DocumentIndependent weights a query term regardless of document.
type DocumentIndependent interface {
	Weight(ctx context.Context, src postings.Source, field, term string) (float64, error)
}

// DocumentDependent weights the posting entry cur is positioned on.
type DocumentDependent interface {
	Weight(ctx context.Context, src postings.Source, cur postings.Cursor, field, term string) (float64, error)
}

// IndependentFunc adapts a function to DocumentIndependent.
type IndependentFunc func(ctx context.Context, src postings.Source, field, term string) (float64, error)

func (f IndependentFunc) Weight(ctx context.Context, src postings.Source, field, term string) (float64, error) {
	return f(ctx, src, field, term)
}

// DependentFunc adapts a function to DocumentDependent.
type DependentFunc func(ctx context.Context, src postings.Source, cur postings.Cursor, field, term string) (float64, error)

func (f DependentFunc) Weight(ctx context.Context, src postings.Source, cur postings.Cursor, field, term string) (float64, error) {
	return f(ctx, src, cur, field, term)
}

// Uniform treats every term as equally important.
type Uniform struct{}

func (Uniform) Weight(context.Context, postings.Source, string, string) (float64, error) {
	return 1, nil
}

// IDF is ln((N + 0.5) / (df + 0.5)). It reaches 0 at df == N and only goes
// negative when a source reports df > N; callers must accept either sign.
type IDF struct{}

func (IDF) Weight(ctx context.Context, src postings.Source, field, term string) (float64, error) {
	n, df, err := collectionStats(ctx, src, field, term)
	if err != nil {
		return 0, err
	}
	return math.Log((float64(n) + 0.5) / (float64(df) + 0.5)), nil
}

// RSJ is the Robertson–Spärck Jones weight with no relevance information,
// ln((N - df + 0.5) / (df + 0.5)). It turns negative once a term occurs in
// more than half of the collection.
type RSJ struct{}

func (RSJ) Weight(ctx context.Context, src postings.Source, field, term string) (float64, error) {
	n, df, err := collectionStats(ctx, src, field, term)
	if err != nil {
		return 0, err
	}
	return math.Log((float64(n-df) + 0.5) / (float64(df) + 0.5)), nil
}

// RawTF is the in-document frequency.
type RawTF struct{}

func (RawTF) Weight(_ context.Context, _ postings.Source, cur postings.Cursor, _, _ string) (float64, error) {
	return float64(cur.Freq()), nil
}

// BinTF is 1 when the term occurs in the document and 0 otherwise.
type BinTF struct{}

func (BinTF) Weight(_ context.Context, _ postings.Source, cur postings.Cursor, _, _ string) (float64, error) {
	if cur.Freq() > 0 {
		return 1, nil
	}
	return 0, nil
}

// LogTF is 1 + log_base(freq) for freq > 0.
type LogTF struct {
	base    float64
	logBase float64
}

// NewLogTF returns a LogTF with the given logarithm base, which must exceed 1.
func NewLogTF(base float64) (LogTF, error) {
	if !(base > 1) {
		return LogTF{}, apperrors.InvalidArgument("log tf base must be greater than 1, got %v", base)
	}
	return LogTF{base: base, logBase: math.Log(base)}, nil
}

func (w LogTF) Base() float64 { return w.base }

func (w LogTF) Weight(_ context.Context, _ postings.Source, cur postings.Cursor, _, _ string) (float64, error) {
	freq := cur.Freq()
	if freq <= 0 {
		return 0, nil
	}
	return 1 + math.Log(float64(freq))/w.logBase, nil
}

// BM25TFUnnormalized is the BM25 saturation curve without document length
// normalization: freq*(k1+1) / (freq+k1).
type BM25TFUnnormalized struct {
	K1 float64
}

func (w BM25TFUnnormalized) Weight(_ context.Context, _ postings.Source, cur postings.Cursor, _, _ string) (float64, error) {
	freq := float64(cur.Freq())
	if freq <= 0 {
		return 0, nil
	}
	return freq * (w.K1 + 1) / (freq + w.K1), nil
}

func collectionStats(ctx context.Context, src postings.Source, field, term string) (n, df int, err error) {
	n, err = src.TotalDocs(ctx, field)
	if err != nil {
		return 0, 0, apperrors.IndexAccess("total docs", field, "", err)
	}
	df, err = src.DocFreq(ctx, field, term)
	if err != nil {
		return 0, 0, apperrors.IndexAccess("doc freq", field, term, err)
	}
	return n, df, nil
}

// Params carries the tunables for parameterised dependent weights.
type Params struct {
	LogTFBase float64
	BM25K1    float64
}

// Independent resolves a document-independent weight by name.
func Independent(name string) (DocumentIndependent, error) {
	switch strings.ToLower(name) {
	case "uniform", "":
		return Uniform{}, nil
	case "idf":
		return IDF{}, nil
	case "rsj":
		return RSJ{}, nil
	default:
		return nil, fmt.Errorf("%w: independent %q", apperrors.ErrUnknownWeight, name)
	}
}

// Dependent resolves a document-dependent weight by name.
func Dependent(name string, params Params) (DocumentDependent, error) {
	switch strings.ToLower(name) {
	case "rawtf", "":
		return RawTF{}, nil
	case "bintf":
		return BinTF{}, nil
	case "logtf":
		w, err := NewLogTF(params.LogTFBase)
		if err != nil {
			return nil, err
		}
		return w, nil
	case "bm25tf":
		if params.BM25K1 < 0 {
			return nil, apperrors.InvalidArgument("bm25 k1 must be non-negative, got %v", params.BM25K1)
		}
		return BM25TFUnnormalized{K1: params.BM25K1}, nil
	default:
		return nil, fmt.Errorf("%w: dependent %q", apperrors.ErrUnknownWeight, name)
	}
}
