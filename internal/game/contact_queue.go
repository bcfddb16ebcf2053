package game

import "sync"

// ContactQueue buffers contact events produced on another goroutine until
// the simulation drains them at the start of its next tick.
type ContactQueue struct {
	mu     sync.Mutex
	events []ContactEvent
}

// Push appends events in emission order. Safe for concurrent use.
func (q *ContactQueue) Push(events ...ContactEvent) {
	if len(events) == 0 {
		return
	}
	q.mu.Lock()
	q.events = append(q.events, events...)
	q.mu.Unlock()
}

// Drain returns all queued events in emission order and empties the queue.
func (q *ContactQueue) Drain() []ContactEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

// Len returns the number of queued events.
func (q *ContactQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
