// Package outbox is the bounded queue between intent producers (background
// workers, the payment webhook) and the transport that delivers them.
package outbox

import (
	"context"
	"sync"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// DefaultSize is used when New gets a non-positive size.
const DefaultSize = 256

// Queue is a bounded FIFO of outbound intents.
type Queue struct {
	mu     sync.RWMutex
	ch     chan domain.Intent
	once   sync.Once
	closed chan struct{} // stop accepting
	sealed chan struct{} // no publisher can still be sending
}

// New creates a queue holding at most size pending intents.
func New(size int) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{
		ch:     make(chan domain.Intent, size),
		closed: make(chan struct{}),
		sealed: make(chan struct{}),
	}
}

// Publish enqueues intents in order, blocking while the queue is full.
// It stops at the first intent that cannot be queued because ctx is done
// or the queue is closed.
func (q *Queue) Publish(ctx context.Context, intents ...domain.Intent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, in := range intents {
		select {
		case <-q.closed:
			return ErrClosed
		default:
		}
		select {
		case q.ch <- in:
		case <-ctx.Done():
			return ctx.Err()
		case <-q.closed:
			return ErrClosed
		}
	}
	return nil
}

// C is the receive side for the delivery loop.
func (q *Queue) C() <-chan domain.Intent { return q.ch }

// Done is closed once Close has returned. From then on the buffered
// intents are all that will ever be received.
func (q *Queue) Done() <-chan struct{} { return q.sealed }

// Len reports queued intents.
func (q *Queue) Len() int { return len(q.ch) }

// Close stops accepting intents and waits for in-flight Publish calls to
// return. Already queued intents stay readable.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.closed)
		q.mu.Lock()
		close(q.sealed)
		q.mu.Unlock()
	})
}
