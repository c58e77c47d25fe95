package pipeline

import "context"

// MemorySource is an in-process MessageSource backed by a channel, used in
// tests to drive a Consumer without a broker.
type MemorySource struct {
	ch chan []byte
}

// NewMemorySource constructs a MemorySource with the given buffer size.
func NewMemorySource(buffer int) *MemorySource {
	return &MemorySource{ch: make(chan []byte, buffer)}
}

// Publish enqueues a raw message value for the next Poll to return.
func (s *MemorySource) Publish(value []byte) {
	s.ch <- value
}

// Poll returns the next queued message, or ok=false if none is available
// without blocking past ctx's deadline/cancellation.
func (s *MemorySource) Poll(ctx context.Context) ([]byte, bool, error) {
	select {
	case v := <-s.ch:
		return v, true, nil
	case <-ctx.Done():
		return nil, false, nil
	default:
		return nil, false, nil
	}
}
