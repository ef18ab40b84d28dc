// Package queue holds the bounded in-memory FIFO buffer of pending events.
package queue

import (
	"sync"

	"github.com/sijil-dev/logship/internal/domain"
)

// DefaultCapacity is the default maximum number of buffered events.
const DefaultCapacity = 4096

// EventQueue is a bounded FIFO of events. Insertion appends at the tail,
// removal takes a batch from the head. Neither operation blocks.
type EventQueue struct {
	mu       sync.Mutex
	items    []domain.Event
	capacity int
}

// New creates a queue holding at most capacity events.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &EventQueue{
		items:    make([]domain.Event, 0, min(capacity, 256)),
		capacity: capacity,
	}
}

// Enqueue appends ev. It returns false and leaves the queue untouched when
// the queue is full; callers must treat false as event loss.
func (q *EventQueue) Enqueue(ev domain.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, ev)
	return true
}

// DequeueBatch removes and returns up to max events from the head.
// It returns an empty slice when the queue is empty.
func (q *EventQueue) DequeueBatch(max int) []domain.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := min(max, len(q.items))
	if n <= 0 {
		return []domain.Event{}
	}

	batch := make([]domain.Event, n)
	copy(batch, q.items[:n])

	// Shift the remainder down so the backing array does not grow without bound.
	rest := copy(q.items, q.items[n:])
	clear(q.items[rest:])
	q.items = q.items[:rest]

	return batch
}

// Len returns the number of buffered events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *EventQueue) Cap() int {
	return q.capacity
}
