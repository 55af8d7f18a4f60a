package result

import (
	"context"
	"fmt"
)

// Scored is one ranked document. Key is the external document key and is
// empty until a KeyResolver fills it in.
type Scored struct {
	DocID int     `json:"doc_id"`
	Key   string  `json:"key,omitempty"`
	Score float64 `json:"score"`
}

// KeyResolver maps internal document ids back to their stored natural keys.
// Ids with no stored key are absent from the returned map.
type KeyResolver interface {
	ResolveKeys(ctx context.Context, docIDs []int) (map[int]string, error)
}

// AttachKeys fills in Key for every result the resolver knows about. It runs
// after ranking and never changes order or scores.
func AttachKeys(ctx context.Context, resolver KeyResolver, results []Scored) error {
	if resolver == nil || len(results) == 0 {
		return nil
	}
	ids := make([]int, len(results))
	for i, r := range results {
		ids[i] = r.DocID
	}
	keys, err := resolver.ResolveKeys(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolving document keys: %w", err)
	}
	for i := range results {
		if key, ok := keys[results[i].DocID]; ok {
			results[i].Key = key
		}
	}
	return nil
}
