package notify

import (
	"context"
	"sync"
)

// DefaultMemoryHistory is how many published messages a MemoryPublisher keeps
const DefaultMemoryHistory = 1000

// MemoryPublisher delivers messages synchronously to in-process subscribers
// and records the most recent messages it publishes. Useful for tests and
// development.
type MemoryPublisher struct {
	mu         sync.RWMutex
	handlers   map[string][]MessageHandler
	published  []Message
	maxHistory int
	closed     bool
}

// MemoryOption configures a MemoryPublisher
type MemoryOption func(*MemoryPublisher)

// WithMemoryHistory sets how many published messages are kept. Zero keeps none.
func WithMemoryHistory(n int) MemoryOption {
	return func(p *MemoryPublisher) {
		if n >= 0 {
			p.maxHistory = n
		}
	}
}

// Message is one published message
type Message struct {
	Subject string
	Data    []byte
}

// NewMemoryPublisher creates an in-memory publisher
func NewMemoryPublisher(opts ...MemoryOption) *MemoryPublisher {
	p := &MemoryPublisher{
		handlers:   make(map[string][]MessageHandler),
		maxHistory: DefaultMemoryHistory,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish records the message and hands it to every subscriber of subject
func (p *MemoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.record(Message{Subject: subject, Data: dataCopy})
	handlers := append([]MessageHandler(nil), p.handlers[subject]...)
	p.mu.Unlock()

	for _, h := range handlers {
		h(subject, dataCopy)
	}
	return nil
}

// record appends msg, dropping the oldest message once the history is full.
// Caller holds p.mu.
func (p *MemoryPublisher) record(msg Message) {
	if p.maxHistory == 0 {
		return
	}
	if len(p.published) >= p.maxHistory {
		n := copy(p.published, p.published[len(p.published)-p.maxHistory+1:])
		p.published = p.published[:n]
	}
	p.published = append(p.published, msg)
}

// Subscribe registers handler for subject
func (p *MemoryPublisher) Subscribe(subject string, handler MessageHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[subject] = append(p.handlers[subject], handler)
}

// Published returns a copy of the retained messages, oldest first
func (p *MemoryPublisher) Published() []Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Message(nil), p.published...)
}

// Close drops all subscribers; later publishes fail
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.handlers = make(map[string][]MessageHandler)
	return nil
}
