package pipeline

import (
	"context"
	"errors"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// KafkaSource is a MessageSource backed by a real Kafka topic partition
// reader. Poll commits each message's consumer-group offset explicitly,
// right after fetching it and before the consumer handles it.
type KafkaSource struct {
	reader *kafka.Reader
}

// NewKafkaSource constructs a KafkaSource subscribed to topic under
// groupID, with 1s poll timeout matching the consumer framework's poll
// cadence.
func NewKafkaSource(brokers []string, groupID, topic string) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &KafkaSource{reader: reader}
}

// Poll fetches and commits the next message, waiting up to 1 second.
func (s *KafkaSource) Poll(ctx context.Context) ([]byte, bool, error) {
	pollCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	msg, err := s.reader.FetchMessage(pollCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if err := s.reader.CommitMessages(ctx, msg); err != nil {
		return msg.Value, true, err
	}
	return msg.Value, true, nil
}

// Close releases the underlying reader's connections.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
