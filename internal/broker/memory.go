package broker

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is an unbounded in-process Queue used by tests and the
// single-binary dev mode.
type MemoryQueue struct {
	mu       sync.Mutex
	items    [][]byte
	notEmpty chan struct{}
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{notEmpty: make(chan struct{}, 1)}
}

func (q *MemoryQueue) Push(_ context.Context, payload []byte) error {
	q.mu.Lock()
	q.items = append(q.items, append([]byte(nil), payload...))
	q.mu.Unlock()
	select {
	case q.notEmpty <- struct{}{}:
	default:
	}
	return nil
}

func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			if len(q.items) > 0 {
				select {
				case q.notEmpty <- struct{}{}:
				default:
				}
			}
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notEmpty:
		case <-timer.C:
			return nil, ErrMessageTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// MemoryChannel is an in-process session Channel. The server side
// calls Send and Recv; the test's client side uses ClientSend and
// ClientRecv on the opposite directions.
type MemoryChannel struct {
	toClient chan []byte
	toServer chan []byte
	closed   chan struct{}
	once     sync.Once
}

// NewMemoryChannel creates a channel pair with a small buffer so the
// server never blocks on Send in tests.
func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{
		toClient: make(chan []byte, 256),
		toServer: make(chan []byte, 256),
		closed:   make(chan struct{}),
	}
}

func (c *MemoryChannel) Send(_ context.Context, payload []byte) error {
	select {
	case <-c.closed:
		return ErrChannel
	default:
	}
	select {
	case c.toClient <- append([]byte(nil), payload...):
		return nil
	case <-c.closed:
		return ErrChannel
	}
}

func (c *MemoryChannel) Recv(ctx context.Context, deadline time.Time) ([]byte, error) {
	timeout := time.Until(deadline)
	if timeout <= 0 {
		return nil, ErrMessageTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-c.toServer:
		return payload, nil
	case <-c.closed:
		return nil, ErrChannelClosed
	case <-timer.C:
		return nil, ErrMessageTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *MemoryChannel) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// ClientSend injects a payload as if the remote client sent it.
func (c *MemoryChannel) ClientSend(payload []byte) error {
	select {
	case <-c.closed:
		return ErrChannel
	default:
	}
	select {
	case c.toServer <- append([]byte(nil), payload...):
		return nil
	case <-c.closed:
		return ErrChannel
	}
}

// ClientRecv drains one payload the server sent, without blocking.
func (c *MemoryChannel) ClientRecv() ([]byte, bool) {
	select {
	case payload := <-c.toClient:
		return payload, true
	default:
		return nil, false
	}
}
