package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeadLetters struct {
	mu    sync.Mutex
	calls []EventEnvelope
}

func (f *fakeDeadLetters) Produce(ctx context.Context, topic string, envelope EventEnvelope, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, envelope)
	return nil
}

func (f *fakeDeadLetters) Calls() []EventEnvelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]EventEnvelope, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestConsumer_AlwaysFailingHandlerExhaustsRetriesThenDLQs(t *testing.T) {
	restore := sleepFor
	sleepFor = func(time.Duration) {}
	defer func() { sleepFor = restore }()

	var callCount int
	handler := func(ctx context.Context, envelope EventEnvelope) error {
		callCount++
		return errors.New("boom")
	}

	dlq := &fakeDeadLetters{}
	c := NewConsumer("test.topic", "group-1", 2, nil, handler, dlq)

	envelope := NewConversationCompletedEnvelope("run-1", "conv-1", 1, 10, 5, "completed")
	c.ProcessOne(context.Background(), envelope, []byte("raw"))

	assert.Equal(t, 2, callCount)
	calls := dlq.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "test.topic", calls[0].Payload["original_topic"])
	assert.True(t, strings.Contains(calls[0].Payload["error"].(string), "Max retries exhausted"))
}

func TestConsumer_SuccessfulHandleMarksProcessedAndSkipsDuplicate(t *testing.T) {
	var callCount int
	handler := func(ctx context.Context, envelope EventEnvelope) error {
		callCount++
		return nil
	}

	c := NewConsumer("test.topic", "group-1", 3, nil, handler, &fakeDeadLetters{})
	envelope := NewConversationCompletedEnvelope("run-1", "conv-1", 1, 10, 5, "completed")

	c.ProcessOne(context.Background(), envelope, []byte("raw"))
	c.ProcessOne(context.Background(), envelope, []byte("raw"))

	assert.Equal(t, 1, callCount, "duplicate event_id must not be reprocessed")
}

func TestConsumer_SucceedsOnSecondAttempt(t *testing.T) {
	restore := sleepFor
	sleepFor = func(time.Duration) {}
	defer func() { sleepFor = restore }()

	var callCount int
	handler := func(ctx context.Context, envelope EventEnvelope) error {
		callCount++
		if callCount == 1 {
			return errors.New("transient")
		}
		return nil
	}

	dlq := &fakeDeadLetters{}
	c := NewConsumer("test.topic", "group-1", 3, nil, handler, dlq)
	envelope := NewConversationCompletedEnvelope("run-1", "conv-1", 1, 10, 5, "completed")

	c.ProcessOne(context.Background(), envelope, []byte("raw"))

	assert.Equal(t, 2, callCount)
	assert.Empty(t, dlq.Calls())
}

func TestBackoffDuration_CapsAt30Seconds(t *testing.T) {
	assert.Equal(t, 30*time.Second, backoffDuration(10))
	assert.Equal(t, 2*time.Second, backoffDuration(1))
}

func TestEvictHalf_KeepsRoughlyHalf(t *testing.T) {
	ids := make(map[string]struct{}, 10)
	for i := 0; i < 10; i++ {
		ids[string(rune('a'+i))] = struct{}{}
	}
	evictHalf(ids)
	assert.Len(t, ids, 5)
}
