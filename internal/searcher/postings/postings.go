// Package postings defines the read-only contract between the ranking
// engines and whatever inverted index backs them. A Source reports term
// statistics and opens forward-only cursors over per-term posting lists.
package postings

import (
	"context"
	"math"
)

// NoMoreDocs is returned by Cursor.NextDoc once a posting list is exhausted.
// It is larger than any valid document id.
const NoMoreDocs = math.MaxInt

// Source exposes per-field term statistics and posting lists. Implementations
// must hand out independent cursors: concurrent cursors over the same term
// never share position state.
type Source interface {
	// DocFreq returns the number of documents containing term in field.
	// Terms outside the vocabulary report 0 without an error.
	DocFreq(ctx context.Context, field, term string) (int, error)
	// TotalDocs returns the number of documents in the collection.
	TotalDocs(ctx context.Context, field string) (int, error)
	// OpenPostings returns a fresh cursor positioned before the first entry.
	OpenPostings(ctx context.Context, field, term string) (Cursor, error)
}

// Cursor walks one posting list in strictly ascending document order.
// It cannot be rewound.
type Cursor interface {
	// NextDoc advances to the next entry and returns its document id, or
	// NoMoreDocs when the list is exhausted.
	NextDoc() (int, error)
	// DocID returns the current document id; -1 before the first NextDoc.
	DocID() int
	// Freq returns the in-document frequency of the current entry.
	Freq() int
}

// Posting is a single (document, frequency) entry.
type Posting struct {
	DocID int `json:"d"`
	Freq  int `json:"f"`
}

// SliceCursor is a Cursor over an in-memory, ascending posting slice. The
// slice is never modified.
type SliceCursor struct {
	entries []Posting
	pos     int
}

// NewSliceCursor returns a cursor over entries, which must be sorted by
// ascending DocID without duplicates.
func NewSliceCursor(entries []Posting) *SliceCursor {
	return &SliceCursor{entries: entries, pos: -1}
}

func (c *SliceCursor) NextDoc() (int, error) {
	if c.pos < len(c.entries) {
		c.pos++
	}
	return c.DocID(), nil
}

func (c *SliceCursor) DocID() int {
	switch {
	case c.pos < 0:
		return -1
	case c.pos >= len(c.entries):
		return NoMoreDocs
	default:
		return c.entries[c.pos].DocID
	}
}

func (c *SliceCursor) Freq() int {
	if c.pos < 0 || c.pos >= len(c.entries) {
		return 0
	}
	return c.entries[c.pos].Freq
}

// Drain reads the remainder of cur into a slice.
func Drain(cur Cursor) ([]Posting, error) {
	entries := make([]Posting, 0)
	for {
		doc, err := cur.NextDoc()
		if err != nil {
			return nil, err
		}
		if doc == NoMoreDocs {
			return entries, nil
		}
		entries = append(entries, Posting{DocID: doc, Freq: cur.Freq()})
	}
}
