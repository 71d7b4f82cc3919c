package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue is a Queue over a Redis list: LPUSH to enqueue, BRPOP to
// dequeue, so payloads come out in FIFO order.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue binds a queue to a named Redis list.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("%w: push %s: %v", ErrChannel, q.key, err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMessageTimeout
		}
		return nil, fmt.Errorf("%w: pop %s: %v", ErrChannel, q.key, err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("%w: unexpected BRPOP reply", ErrMessageFormat)
	}
	return []byte(res[1]), nil
}

// RedisChannel is a session Channel over a pair of Redis lists: the
// server sends on the session's O list and receives from its I list.
type RedisChannel struct {
	client *redis.Client
	inKey  string
	outKey string

	mu     sync.Mutex
	closed chan struct{}
	once   sync.Once
}

// NewRedisChannel binds a channel to one player session.
func NewRedisChannel(client *redis.Client, playerID int64, sessionID string) *RedisChannel {
	return &RedisChannel{
		client: client,
		inKey:  SessionInKey(playerID, sessionID),
		outKey: SessionOutKey(playerID, sessionID),
		closed: make(chan struct{}),
	}
}

func (c *RedisChannel) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *RedisChannel) Send(ctx context.Context, payload []byte) error {
	if c.isClosed() {
		return fmt.Errorf("%w: send on closed channel", ErrChannel)
	}
	if err := c.client.LPush(ctx, c.outKey, payload).Err(); err != nil {
		return fmt.Errorf("%w: send %s: %v", ErrChannel, c.outKey, err)
	}
	return nil
}

// Recv blocks until a payload arrives on the inbound list, the
// deadline passes, or the channel is closed. Close interrupts an
// outstanding Recv via context cancellation.
func (c *RedisChannel) Recv(ctx context.Context, deadline time.Time) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrChannelClosed
	}

	timeout := time.Until(deadline)
	if timeout <= 0 {
		return nil, ErrMessageTimeout
	}

	recvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.closed:
			cancel()
		case <-recvCtx.Done():
		}
	}()

	res, err := c.client.BRPop(recvCtx, timeout, c.inKey).Result()
	if err != nil {
		if c.isClosed() {
			return nil, ErrChannelClosed
		}
		if errors.Is(err, redis.Nil) {
			return nil, ErrMessageTimeout
		}
		return nil, fmt.Errorf("%w: recv %s: %v", ErrChannel, c.inKey, err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("%w: unexpected BRPOP reply", ErrMessageFormat)
	}
	return []byte(res[1]), nil
}

func (c *RedisChannel) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}
