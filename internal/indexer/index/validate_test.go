package index

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/bestmatch/pkg/errors"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		invalid string
	}{
		{"valid", Document{Key: "d1", Fields: map[string]string{"body": "text"}}, ""},
		{"no fields", Document{Key: "d1"}, ""},
		{"missing key", Document{Key: "  ", Fields: map[string]string{"body": "x"}}, "key"},
		{"long key", Document{Key: strings.Repeat("k", maxKeyLength+1)}, "key"},
		{"blank field name", Document{Key: "d1", Fields: map[string]string{" ": "x"}}, "fields"},
		{"oversized text", Document{Key: "d1", Fields: map[string]string{"body": strings.Repeat("a", maxFieldBytes+1)}}, "fields.body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDocument(tc.doc)
			if tc.invalid == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tc.invalid)
		})
	}
}

func TestLoadJSONLRejectsInvalidDocument(t *testing.T) {
	idx := NewMemoryIndex(nil)
	n, err := idx.LoadJSONL(strings.NewReader("{\"key\":\"a\",\"fields\":{\"body\":\"x\"}}\n{\"fields\":{\"body\":\"y\"}}\n"))
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "line 2: invalid document: key: key is required")
	assert.Equal(t, 1, idx.DocCount())
}
