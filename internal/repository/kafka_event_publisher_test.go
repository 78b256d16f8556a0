package repository

import (
	"context"
	"testing"
	"time"

	"CryptoSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureProducer struct {
	topic string
	key   string
	value interface{}
}

func (c *captureProducer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	c.topic, c.key, c.value = topic, string(key), value
	return nil
}

func (c *captureProducer) Close() error { return nil }

func TestKafkaEventPublisherKeysBySymbol(t *testing.T) {
	cp := &captureProducer{}
	p := &KafkaEventPublisher{producer: cp, topic: "signals.predictions"}

	ev := &models.PredictionEvent{
		ID:          "e1",
		Symbol:      "ETHUSDT",
		Timeframes:  []string{"1h"},
		Actions:     map[string]string{"1h": models.ActionBuy},
		GeneratedAt: time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, p.PublishPrediction(context.Background(), ev))
	assert.Equal(t, "signals.predictions", cp.topic)
	assert.Equal(t, "ETHUSDT", cp.key)
	assert.Same(t, ev, cp.value)

	assert.NoError(t, p.PublishPrediction(context.Background(), nil))
	assert.NoError(t, NopEventPublisher{}.PublishPrediction(context.Background(), ev))
}
