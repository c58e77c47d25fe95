package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// Producer publishes event envelopes to Kafka topics. It is safe for
// concurrent use by every conversation, evaluator, and consumer in the
// process, matching the single shared producer the rest of the pipeline
// assumes.
type Producer struct {
	writer *kafka.Writer
	mu     sync.Mutex
}

// ProducerConfig configures the underlying Kafka writer for idempotent,
// at-least-once publication.
type ProducerConfig struct {
	Brokers []string
	// BatchTimeout bounds how long the writer waits to fill a batch before
	// flushing it; 0 uses the kafka-go default.
	BatchTimeout time.Duration
}

// NewProducer constructs a Producer configured for required-acks-from-all
// and bounded retries, mirroring an idempotent producer's delivery
// guarantees within what kafka-go's writer API exposes.
func NewProducer(cfg ProducerConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: cfg.BatchTimeout,
		Async:        false,
	}
	return &Producer{writer: w}
}

// Produce serializes and publishes an envelope to topic, keyed by key when
// non-empty (Kafka routes same-key messages to the same partition, giving
// per-key ordering).
func (p *Producer) Produce(ctx context.Context, topic string, envelope EventEnvelope, key string) error {
	data, err := envelope.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	msg := kafka.Message{Topic: topic, Value: data}
	if key != "" {
		msg.Key = []byte(key)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("pipeline producer write failed", "topic", topic, "error", err)
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Flush waits up to timeout for any buffered writes to complete. It closes
// the underlying writer, so the Producer accepts no writes afterwards.
func (p *Producer) Flush(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.writer.Close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("flush: %w", ctx.Err())
	}
}

// Reset closes the underlying writer. Test-only: production code should
// let the process own one Producer for its lifetime.
func (p *Producer) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Close()
}
