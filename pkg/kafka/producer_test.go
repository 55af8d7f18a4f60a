package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "search-events")
	require.NoError(t, p.Publish(context.Background(), Event{
		Key:   "daat",
		Value: map[string]int{"returned": 3},
	}))
	require.Len(t, w.written, 1)
	assert.Equal(t, "daat", string(w.written[0].Key))
	assert.JSONEq(t, `{"returned":3}`, string(w.written[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishBatchRejectsUnencodable(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "t")
	err := p.PublishBatch(context.Background(), []Event{
		{Key: "ok", Value: 1},
		{Key: "bad", Value: make(chan int)},
	})
	require.Error(t, err)
	assert.Empty(t, w.written)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := newProducer(&fakeWriter{err: boom}, "t")
	err := p.Publish(context.Background(), Event{Key: "k", Value: "v"})
	require.ErrorIs(t, err, boom)
}

func TestPublishBatchEmpty(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newProducer(w, "t").PublishBatch(context.Background(), nil))
	assert.Empty(t, w.written)
}
