package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const maxLineBytes = 16 << 20

// LoadJSONL reads one Document per line from r, validates it and adds it to
// the index. Blank lines are skipped. It stops at the first bad line and
// returns the number of documents added before it.
func (m *MemoryIndex) LoadJSONL(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	added := 0
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var doc Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return added, fmt.Errorf("line %d: decoding document: %w", line, err)
		}
		if err := ValidateDocument(doc); err != nil {
			return added, fmt.Errorf("line %d: %w", line, err)
		}
		m.AddDocument(doc)
		added++
	}
	if err := scanner.Err(); err != nil {
		return added, fmt.Errorf("reading documents: %w", err)
	}
	return added, nil
}
