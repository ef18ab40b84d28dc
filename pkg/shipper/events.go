package shipper

import (
	"sync/atomic"
	"time"
)

// SendSuccessEvent is emitted when a batch is accepted by the collector.
type SendSuccessEvent struct {
	EventCount int
	Attempts   int
	Duration   time.Duration
}

// SendErrorEvent is emitted once per batch on terminal failure.
type SendErrorEvent struct {
	Error      error
	EventCount int
	// Retryable is true when the batch was lost after exhausting retries,
	// false when the collector rejected it.
	Retryable bool
}

// RetryEvent is emitted before each backoff wait.
type RetryEvent struct {
	Attempt int
	Delay   time.Duration
	Error   error
}

// EventHandler receives delivery notifications. Methods are called from
// delivery goroutines and must not block.
type EventHandler interface {
	OnSendSuccess(SendSuccessEvent)
	OnSendError(SendErrorEvent)
	OnRetry(RetryEvent)
}

// Stats is a snapshot of client counters. Counts are in events.
type Stats struct {
	Accepted  uint64
	Dropped   uint64
	Delivered uint64
	Rejected  uint64
	Lost      uint64
	Queued    int
	InFlight  int
}

type counters struct {
	accepted  atomic.Uint64
	dropped   atomic.Uint64
	delivered atomic.Uint64
	rejected  atomic.Uint64
	lost      atomic.Uint64
}

// emitterWrapper adapts EventHandler to app.SendEventEmitter and keeps
// the delivery counters.
type emitterWrapper struct {
	handler  EventHandler
	counters *counters
}

func (e *emitterWrapper) OnSendSuccess(eventCount, attempts int, duration time.Duration) {
	e.counters.delivered.Add(uint64(eventCount))
	if e.handler == nil {
		return
	}
	e.handler.OnSendSuccess(SendSuccessEvent{
		EventCount: eventCount,
		Attempts:   attempts,
		Duration:   duration,
	})
}

func (e *emitterWrapper) OnSendError(err error, eventCount int, retryable bool) {
	if retryable {
		e.counters.lost.Add(uint64(eventCount))
	} else {
		e.counters.rejected.Add(uint64(eventCount))
	}
	if e.handler == nil {
		return
	}
	e.handler.OnSendError(SendErrorEvent{
		Error:      err,
		EventCount: eventCount,
		Retryable:  retryable,
	})
}

func (e *emitterWrapper) OnRetry(attempt int, delay time.Duration, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnRetry(RetryEvent{Attempt: attempt, Delay: delay, Error: err})
}
