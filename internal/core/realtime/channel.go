package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/opsboard/realtime-backend/internal/core/domain"
)

// DefaultQueueCapacity bounds the number of envelopes a slow consumer may have
// pending before the connection is dropped.
const DefaultQueueCapacity = 256

// Channel represents one live connection for a subscriber. Two channels for
// the same subscriber are distinct; identity is the pointer, not the value.
// The queue is FIFO and bounded: producers never block on it, and a full
// queue is treated as a dead connection by the dispatcher.
type Channel struct {
	subscriberID domain.SubscriberID
	queue        chan domain.Envelope
	createdAt    time.Time

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewChannel creates a channel with the given queue capacity. Capacities
// below 1 fall back to DefaultQueueCapacity.
func NewChannel(subscriberID domain.SubscriberID, capacity int) *Channel {
	if capacity < 1 {
		capacity = DefaultQueueCapacity
	}
	return &Channel{
		subscriberID: subscriberID,
		queue:        make(chan domain.Envelope, capacity),
		createdAt:    time.Now(),
	}
}

// SubscriberID returns the identity this channel delivers to.
func (c *Channel) SubscriberID() domain.SubscriberID {
	return c.subscriberID
}

// CreatedAt returns when the connection was established. Informational only.
func (c *Channel) CreatedAt() time.Time {
	return c.createdAt
}

// Queue returns the consumer side of the delivery queue. The transport's
// writer goroutine is the only reader; the channel is closed by Close.
func (c *Channel) Queue() <-chan domain.Envelope {
	return c.queue
}

// TrySend enqueues an envelope without blocking. It returns false when the
// queue is full or the channel has been closed. A send that races Close is
// absorbed here rather than propagated, so one dying connection can never
// abort a fan-out loop.
func (c *Channel) TrySend(env domain.Envelope) (ok bool) {
	if c.closed.Load() {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case c.queue <- env:
		return true
	default:
		return false
	}
}

// Close marks the channel dead and closes the queue exactly once. Pending
// envelopes remain readable by the consumer until drained.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.queue)
	})
}
