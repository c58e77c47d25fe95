package llmclient

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a test double for Client that returns canned responses in order,
// or invokes a per-call function when one is registered. It records every
// request it received for assertions. Safe for concurrent use.
type Mock struct {
	mu        sync.Mutex
	responses []*ChatResponse
	errs      []error
	calls     int
	requests  []ChatRequest

	// Func, when set, overrides the canned-response queue entirely.
	Func func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// NewMock constructs a Mock that returns responses in the given order on
// successive calls. Calling Chat more times than len(responses) returns an
// error naming the call index.
func NewMock(responses ...*ChatResponse) *Mock {
	return &Mock{responses: responses, errs: make([]error, len(responses))}
}

// QueueError appends an error response at the next position in the queue.
func (m *Mock) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, nil)
	m.errs = append(m.errs, err)
}

// QueueResponse appends a canned response to the queue.
func (m *Mock) QueueResponse(resp *ChatResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	m.errs = append(m.errs, nil)
}

// Chat implements Client.
func (m *Mock) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	idx := m.calls
	m.calls++

	if m.Func != nil {
		return m.Func(ctx, req)
	}

	if idx >= len(m.responses) {
		return nil, fmt.Errorf("mock llm client: no response queued for call %d", idx)
	}
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	return m.responses[idx], nil
}

// CallCount returns the number of Chat invocations observed so far.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every request observed so far, in order.
func (m *Mock) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
