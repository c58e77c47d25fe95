package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const processedIDsHardCap = 100_000

// HandlerFunc processes one decoded event envelope. Returning an error
// triggers the consumer's retry-then-DLQ policy.
type HandlerFunc func(ctx context.Context, envelope EventEnvelope) error

// MessageSource abstracts the broker-facing half of consumption: polling
// for the next raw message. Any offset commit is the source's own business
// inside Poll; the consumer does not ack a message after handling it. This
// is the seam a Kafka reader sits behind in production and an in-memory
// channel sits behind in tests.
type MessageSource interface {
	// Poll blocks up to the implementation's own timeout and returns the
	// next message, or ok=false if none arrived.
	Poll(ctx context.Context) (value []byte, ok bool, err error)
}

// EventPublisher is the narrow producer seam consumers need: one method
// to publish an envelope to a topic, used both for the DLQ path here and
// for the downstream events a handler itself produces.
type EventPublisher interface {
	Produce(ctx context.Context, topic string, envelope EventEnvelope, key string) error
}

// Consumer drives one topic's poll/dedup/retry/DLQ loop. It composes a
// MessageSource and a HandlerFunc rather than being subclassed per topic —
// the three concrete consumers in this package are each a thin HandlerFunc
// plus topic name, not a type hierarchy.
type Consumer struct {
	Topic       string
	GroupID     string
	MaxRetries  int
	Source      MessageSource
	Handle      HandlerFunc
	DeadLetters EventPublisher

	mu           sync.Mutex
	processedIDs map[string]struct{}

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewConsumer constructs a Consumer. maxRetries <= 0 defaults to 3.
func NewConsumer(topic, groupID string, maxRetries int, source MessageSource, handle HandlerFunc, deadLetters EventPublisher) *Consumer {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Consumer{
		Topic:        topic,
		GroupID:      groupID,
		MaxRetries:   maxRetries,
		Source:       source,
		Handle:       handle,
		DeadLetters:  deadLetters,
		processedIDs: make(map[string]struct{}),
		stopCh:       make(chan struct{}),
	}
}

// Start begins the poll loop in a background goroutine.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.run(ctx)
}

// Stop signals the loop to exit and waits for it to finish.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func (c *Consumer) run(ctx context.Context) {
	defer c.wg.Done()
	log := slog.With("topic", c.Topic, "group_id", c.GroupID)
	log.Info("consumer started")

	for {
		select {
		case <-c.stopCh:
			log.Info("consumer stopping")
			return
		case <-ctx.Done():
			log.Info("context cancelled, consumer stopping")
			return
		default:
		}

		value, ok, err := c.Source.Poll(ctx)
		if err != nil {
			log.Error("poll error", "error", err)
			continue
		}
		if !ok {
			continue
		}

		envelope, err := DecodeEnvelope(value)
		if err != nil {
			log.Error("deserialize error", "error", err)
			continue
		}

		eventID := envelope.EventID()
		if eventID != "" && c.alreadyProcessed(eventID) {
			log.Debug("duplicate skipped", "event_id", eventID)
			continue
		}

		c.processWithRetries(ctx, envelope, value)
	}
}

// ProcessOne runs one envelope through the retry/DLQ pipeline synchronously
// — the seam tests use instead of driving the full poll loop.
func (c *Consumer) ProcessOne(ctx context.Context, envelope EventEnvelope, rawValue []byte) {
	eventID := envelope.EventID()
	if eventID != "" && c.alreadyProcessed(eventID) {
		return
	}
	c.processWithRetries(ctx, envelope, rawValue)
}

func (c *Consumer) processWithRetries(ctx context.Context, envelope EventEnvelope, rawValue []byte) {
	log := slog.With("topic", c.Topic)
	var lastErr error

	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		lastErr = c.Handle(ctx, envelope)
		if lastErr == nil {
			if id := envelope.EventID(); id != "" {
				c.markProcessed(id)
			}
			return
		}

		log.Warn("consumer retry", "attempt", attempt, "max_retries", c.MaxRetries, "error", lastErr)
		if attempt < c.MaxRetries {
			sleepFor(backoffDuration(attempt))
		}
	}

	log.Error("max retries exhausted, sending to DLQ", "error", lastErr)
	c.sendToDLQ(ctx, rawValue, "Max retries exhausted")
}

// backoffDuration is min(2^attempt, 30) seconds.
func backoffDuration(attempt int) time.Duration {
	seconds := 1 << attempt
	if seconds > 30 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}

// sleepFor is a package variable so tests can stub out real sleeping.
var sleepFor = func(d time.Duration) { time.Sleep(d) }

func (c *Consumer) sendToDLQ(ctx context.Context, rawValue []byte, errMsg string) {
	dlq := NewDeadLetterEnvelope(c.Topic, errMsg, string(rawValue))
	if c.DeadLetters == nil {
		return
	}
	if err := c.DeadLetters.Produce(ctx, TopicPipelineErrors, dlq, ""); err != nil {
		slog.Error("dlq publish failed", "topic", c.Topic, "error", err)
	}
}

func (c *Consumer) alreadyProcessed(eventID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.processedIDs[eventID]
	return ok
}

func (c *Consumer) markProcessed(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processedIDs[eventID] = struct{}{}

	if len(c.processedIDs) > processedIDsHardCap {
		evictHalf(c.processedIDs)
	}
}

// evictHalf drops half of the set's entries: the ids are sorted and the
// lexically smallest half is deleted, so the eviction order is
// deterministic (but not FIFO).
func evictHalf(ids map[string]struct{}) {
	keys := make([]string, 0, len(ids))
	for id := range ids {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	for _, id := range keys[:len(keys)/2] {
		delete(ids, id)
	}
}
