package result

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver map[int]string

func (m mapResolver) ResolveKeys(_ context.Context, ids []int) (map[int]string, error) {
	out := make(map[int]string)
	for _, id := range ids {
		if k, ok := m[id]; ok {
			out[id] = k
		}
	}
	return out, nil
}

type failingResolver struct{}

func (failingResolver) ResolveKeys(context.Context, []int) (map[int]string, error) {
	return nil, errors.New("connection refused")
}

func TestAttachKeys(t *testing.T) {
	results := []Scored{{DocID: 2, Score: 4}, {DocID: 1, Score: 2}, {DocID: 9, Score: 1}}
	err := AttachKeys(context.Background(), mapResolver{1: "FBIS3-1", 2: "FBIS3-2"}, results)
	require.NoError(t, err)

	assert.Equal(t, []Scored{
		{DocID: 2, Key: "FBIS3-2", Score: 4},
		{DocID: 1, Key: "FBIS3-1", Score: 2},
		{DocID: 9, Score: 1},
	}, results)
}

func TestAttachKeysNoResolver(t *testing.T) {
	results := []Scored{{DocID: 1, Score: 1}}
	require.NoError(t, AttachKeys(context.Background(), nil, results))
	assert.Empty(t, results[0].Key)
}

func TestAttachKeysError(t *testing.T) {
	err := AttachKeys(context.Background(), failingResolver{}, []Scored{{DocID: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving document keys")
}
