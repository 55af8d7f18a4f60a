package index

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/postings"
)

func newTestIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex(tokenizer.New(tokenizer.Options{KeepStopWords: true}))
	idx.AddDocument(Document{Key: "doc-a", Fields: map[string]string{"title": "red fox", "body": "fox fox jumps"}})
	idx.AddDocument(Document{Key: "doc-b", Fields: map[string]string{"body": "lazy dog"}})
	idx.AddDocument(Document{Key: "doc-c", Fields: map[string]string{"title": "fox", "body": "dog and fox"}})
	return idx
}

func TestMemoryIndexAssignsDenseIDs(t *testing.T) {
	idx := NewMemoryIndex(nil)
	assert.Equal(t, 0, idx.AddDocument(Document{Key: "a"}))
	assert.Equal(t, 1, idx.AddDocument(Document{Key: "b"}))
	assert.Equal(t, 2, idx.DocCount())
}

func TestMemoryIndexDocFreqPerField(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	df, err := idx.DocFreq(ctx, "body", "fox")
	require.NoError(t, err)
	assert.Equal(t, 2, df)

	df, err = idx.DocFreq(ctx, "title", "fox")
	require.NoError(t, err)
	assert.Equal(t, 2, df)

	df, err = idx.DocFreq(ctx, "title", "dog")
	require.NoError(t, err)
	assert.Zero(t, df)

	df, err = idx.DocFreq(ctx, "missing", "fox")
	require.NoError(t, err)
	assert.Zero(t, df)

	total, err := idx.TotalDocs(ctx, "title")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestMemoryIndexPostingsAscending(t *testing.T) {
	idx := newTestIndex(t)
	cur, err := idx.OpenPostings(context.Background(), "body", "fox")
	require.NoError(t, err)
	got, err := postings.Drain(cur)
	require.NoError(t, err)
	assert.Equal(t, []postings.Posting{{DocID: 0, Freq: 2}, {DocID: 2, Freq: 1}}, got)
}

func TestMemoryIndexCursorIsSnapshot(t *testing.T) {
	idx := newTestIndex(t)
	cur, err := idx.OpenPostings(context.Background(), "body", "dog")
	require.NoError(t, err)
	idx.AddDocument(Document{Key: "doc-d", Fields: map[string]string{"body": "dog"}})

	got, err := postings.Drain(cur)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	df, err := idx.DocFreq(context.Background(), "body", "dog")
	require.NoError(t, err)
	assert.Equal(t, 3, df)
}

func TestMemoryIndexEmptyPostings(t *testing.T) {
	idx := newTestIndex(t)
	cur, err := idx.OpenPostings(context.Background(), "body", "cat")
	require.NoError(t, err)
	doc, err := cur.NextDoc()
	require.NoError(t, err)
	assert.Equal(t, postings.NoMoreDocs, doc)
}

func TestMemoryIndexResolveKeys(t *testing.T) {
	idx := newTestIndex(t)
	keys, err := idx.ResolveKeys(context.Background(), []int{2, 0, 7, -1})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "doc-a", 2: "doc-c"}, keys)
	assert.Equal(t, []string{"doc-a", "doc-b", "doc-c"}, idx.Keys())
}

func TestMemoryIndexStats(t *testing.T) {
	idx := newTestIndex(t)
	stats := idx.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, FieldStats{Field: "body", Terms: 5, Tokens: 8}, stats[0])
	assert.Equal(t, FieldStats{Field: "title", Terms: 2, Tokens: 3}, stats[1])
}

func TestLoadJSONL(t *testing.T) {
	input := `{"key":"k1","fields":{"body":"searching indexes"}}

{"key":"k2","fields":{"body":"indexed search"}}
`
	idx := NewMemoryIndex(nil)
	n, err := idx.LoadJSONL(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	df, err := idx.DocFreq(context.Background(), "body", "search")
	require.NoError(t, err)
	assert.Equal(t, 2, df)
}

func TestLoadJSONLReportsLine(t *testing.T) {
	idx := NewMemoryIndex(nil)
	n, err := idx.LoadJSONL(strings.NewReader("{\"key\":\"ok\"}\n{broken\n"))
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "line 2")
}
