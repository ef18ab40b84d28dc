package app

import "time"

// SendEventEmitter is notified of delivery outcomes.
// Calls are made from delivery goroutines and must not block.
type SendEventEmitter interface {
	// OnSendSuccess is called once a batch is accepted by the collector.
	OnSendSuccess(eventCount, attempts int, duration time.Duration)

	// OnSendError is called once per batch on terminal failure. retryable is
	// true when the batch was lost after exhausting retries and false when
	// the collector rejected it.
	OnSendError(err error, eventCount int, retryable bool)

	// OnRetry is called before waiting delay ahead of the given attempt.
	OnRetry(attempt int, delay time.Duration, err error)
}

type noopEmitter struct{}

func (noopEmitter) OnSendSuccess(int, int, time.Duration) {}
func (noopEmitter) OnSendError(error, int, bool)          {}
func (noopEmitter) OnRetry(int, time.Duration, error)     {}
