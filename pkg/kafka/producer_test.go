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
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func TestPublishEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "none")

	require.NoError(t, p.Publish(context.Background(), "t", []byte("k"), "raw"))
	require.NoError(t, p.PublishJSON(context.Background(), "t", "BTCUSDT", map[string]int{"a": 1}))
	require.NoError(t, p.PublishBatch(context.Background(), "t", nil))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "raw", string(w.msgs[0].Value))
	assert.Equal(t, "BTCUSDT", string(w.msgs[1].Key))
	assert.JSONEq(t, `{"a":1}`, string(w.msgs[1].Value))
	assert.Equal(t, "t", w.msgs[1].Topic)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := newProducer(&fakeWriter{err: boom}, "none")
	err := p.Publish(context.Background(), "signals", nil, []byte("x"))
	assert.ErrorIs(t, err, boom)

	_, ok := parseCompression("brotli")
	assert.False(t, ok)
}
