package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the logship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrCredentialsMissing is returned at construction when the access key
	// or secret is empty.
	ErrCredentialsMissing = errors.New("logship: credentials missing")

	// ErrQueueFull reports an event rejected because the queue is at capacity.
	// It is only ever surfaced through diagnostics.
	ErrQueueFull = errors.New("logship: queue full")

	// ErrClientRejected is the terminal outcome for a 4xx response.
	ErrClientRejected = errors.New("logship: batch rejected by collector")

	// ErrTransientDelivery marks a 5xx or transport failure that may be retried.
	ErrTransientDelivery = errors.New("logship: transient delivery failure")

	// ErrDeliveryLost is the terminal outcome after the retry budget is spent.
	ErrDeliveryLost = errors.New("logship: delivery lost after retries")

	// ErrClosed is returned when Close is called on a closed client.
	ErrClosed = errors.New("logship: closed")

	// ErrStreamDisconnected marks an unclean stream closure.
	ErrStreamDisconnected = errors.New("logship: stream disconnected")

	// ErrCleanClose marks a closure both sides agreed on.
	ErrCleanClose = errors.New("logship: stream closed cleanly")

	// ErrInvalidEvent is returned when an inbound frame fails validation.
	ErrInvalidEvent = errors.New("logship: invalid event")

	// ErrInvalidTransition is returned for a connection state change that is
	// not part of the state machine.
	ErrInvalidTransition = errors.New("logship: invalid state transition")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("logship: invalid configuration")
)

// StatusError is returned by senders for a non-2xx collector response.
// It unwraps to ErrClientRejected for 4xx and ErrTransientDelivery otherwise.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("collector returned %d", e.StatusCode)
	}
	return fmt.Sprintf("collector returned %d: %s", e.StatusCode, e.Body)
}

// Unwrap classifies the status code.
func (e *StatusError) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return ErrClientRejected
	}
	return ErrTransientDelivery
}

// IsRetryable reports whether a send error may succeed on a later attempt.
// Client rejections are terminal; everything else (5xx, transport errors,
// timeouts) is recoverable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrClientRejected)
}
