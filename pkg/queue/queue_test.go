package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coinPayload struct {
	Coin string `json:"coin"`
}

type captureJob struct {
	got []string
}

func (j *captureJob) Name() string { return "capture" }
func (j *captureJob) Type() string { return "capture" }

func (j *captureJob) Handle(_ context.Context, payload interface{}) error {
	p, err := ParsePayload[coinPayload](payload)
	if err != nil {
		return err
	}
	j.got = append(j.got, p.Coin)
	return nil
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload[coinPayload](json.RawMessage(`{"coin":"bitcoin"}`))
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", p.Coin)

	p, err = ParsePayload[coinPayload](map[string]interface{}{"coin": "ethereum"})
	require.NoError(t, err)
	assert.Equal(t, "ethereum", p.Coin)

	p, err = ParsePayload[coinPayload](coinPayload{Coin: "solana"})
	require.NoError(t, err)
	assert.Equal(t, "solana", p.Coin)

	_, err = ParsePayload[coinPayload](json.RawMessage(`{`))
	assert.Error(t, err)
	_, err = ParsePayload[coinPayload](3.14)
	assert.Error(t, err)
}

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestProcessDispatchesByType(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	q := NewRedisQueue(nil, Config{}, client, WithKeyPrefix("test:q"))
	q.ctx, q.cancel = context.WithCancel(context.Background())
	defer q.cancel()

	job := &captureJob{}
	q.RegisterJob(job)
	q.RegisterJob(job)

	q.process(Message{ID: "1", Type: "capture", Payload: json.RawMessage(`{"coin":"bitcoin"}`)})
	assert.Equal(t, []string{"bitcoin"}, job.got)
	assert.Equal(t, "test:q:messages", q.queueKey())
	assert.Equal(t, "test:q:dlq", q.deadLetterKey())
}

func TestRedisUnavailable(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	q := NewRedisQueue(nil, Config{Workers: 2}, client)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.Error(t, q.Start(ctx))
	assert.Error(t, q.Enqueue(ctx, "capture", coinPayload{Coin: "x"}))
	assert.NoError(t, q.Stop(ctx))
}
