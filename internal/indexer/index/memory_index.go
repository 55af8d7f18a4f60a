package index

import (
	"context"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/bestmatch/internal/searcher/postings"
)

// MemoryIndex is an in-memory inverted index with one posting table per
// field. Documents receive dense ascending ids in insertion order, so every
// posting list is appended to in ascending order and never rewritten.
type MemoryIndex struct {
	mu       sync.RWMutex
	analyzer *tokenizer.Analyzer
	fields   map[string]map[string][]postings.Posting
	tokens   map[string]int64
	keys     []string
}

func NewMemoryIndex(analyzer *tokenizer.Analyzer) *MemoryIndex {
	if analyzer == nil {
		analyzer = tokenizer.Default
	}
	return &MemoryIndex{
		analyzer: analyzer,
		fields:   make(map[string]map[string][]postings.Posting),
		tokens:   make(map[string]int64),
	}
}

// AddDocument analyses every field of doc and returns its document id.
func (m *MemoryIndex) AddDocument(doc Document) int {
	termFreqs := make(map[string]map[string]int, len(doc.Fields))
	tokenCounts := make(map[string]int, len(doc.Fields))
	for field, text := range doc.Fields {
		freqs := make(map[string]int)
		tokens := m.analyzer.Tokenize(text)
		for _, token := range tokens {
			freqs[token.Term]++
		}
		termFreqs[field] = freqs
		tokenCounts[field] = len(tokens)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docID := len(m.keys)
	m.keys = append(m.keys, doc.Key)
	for field, freqs := range termFreqs {
		table, exists := m.fields[field]
		if !exists {
			table = make(map[string][]postings.Posting)
			m.fields[field] = table
		}
		for term, freq := range freqs {
			table[term] = append(table[term], postings.Posting{DocID: docID, Freq: freq})
		}
		m.tokens[field] += int64(tokenCounts[field])
	}
	return docID
}

func (m *MemoryIndex) DocFreq(_ context.Context, field, term string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.fields[field][term]), nil
}

// TotalDocs reports the size of the whole collection; documents that lack
// the field still count.
func (m *MemoryIndex) TotalDocs(_ context.Context, _ string) (int, error) {
	return m.DocCount(), nil
}

// OpenPostings returns a cursor over the posting list as it stands now.
// Documents added afterwards are not visible to the cursor.
func (m *MemoryIndex) OpenPostings(_ context.Context, field, term string) (postings.Cursor, error) {
	m.mu.RLock()
	list := m.fields[field][term]
	m.mu.RUnlock()
	return postings.NewSliceCursor(list[:len(list):len(list)]), nil
}

func (m *MemoryIndex) ResolveKeys(_ context.Context, docIDs []int) (map[int]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make(map[int]string, len(docIDs))
	for _, id := range docIDs {
		if id >= 0 && id < len(m.keys) && m.keys[id] != "" {
			keys[id] = m.keys[id]
		}
	}
	return keys, nil
}

// Keys returns the external key of every document, indexed by doc id.
func (m *MemoryIndex) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

// Stats lists every field with its vocabulary size and token count.
func (m *MemoryIndex) Stats() []FieldStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make([]FieldStats, 0, len(m.fields))
	for field, table := range m.fields {
		stats = append(stats, FieldStats{
			Field:  field,
			Terms:  len(table),
			Tokens: m.tokens[field],
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Field < stats[j].Field
	})
	return stats
}
