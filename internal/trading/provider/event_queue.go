package tradingprovider

import (
	"sync"

	"github.com/rxtech-lab/equity-trader/internal/types"
)

// eventQueue is an unbounded FIFO in front of the Events channel.
// Producers never block; a single pump goroutine delivers in push order.
type eventQueue struct {
	mu        sync.Mutex
	pending   []types.Event
	signal    chan struct{}
	out       chan types.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		mu:        sync.Mutex{},
		pending:   nil,
		signal:    make(chan struct{}, 1),
		out:       make(chan types.Event),
		done:      make(chan struct{}),
		closeOnce: sync.Once{},
	}

	go q.pump()

	return q
}

func (q *eventQueue) push(events ...types.Event) {
	if len(events) == 0 {
		return
	}

	q.mu.Lock()
	q.pending = append(q.pending, events...)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *eventQueue) events() <-chan types.Event {
	return q.out
}

func (q *eventQueue) pump() {
	defer close(q.out)

	for {
		q.mu.Lock()

		if len(q.pending) == 0 {
			q.mu.Unlock()

			select {
			case <-q.signal:
				continue
			case <-q.done:
				return
			}
		}

		next := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		select {
		case q.out <- next:
		case <-q.done:
			return
		}
	}
}

// close stops delivery and closes the output channel. Pending events are dropped.
func (q *eventQueue) close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
