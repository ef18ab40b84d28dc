package app

import (
	"context"
	"fmt"

	"github.com/sijil-dev/logship/internal/backoff"
	"github.com/sijil-dev/logship/internal/clock"
	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
)

// DefaultMaxRetries is the number of retries after the first failed attempt.
const DefaultMaxRetries = 3

// Outcome is the terminal result of delivering one batch.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeRejected
	OutcomeLost
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeRejected:
		return "rejected"
	case OutcomeLost:
		return "lost"
	default:
		return "unknown"
	}
}

// RetryPolicy bounds the send-with-retry loop.
type RetryPolicy struct {
	MaxRetries int
	Backoff    backoff.Backoff
}

// DefaultRetryPolicy returns 3 retries at 100ms, 200ms, 400ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, Backoff: backoff.Retry}
}

// DeliveryWorker performs the send-with-retry cycle for a batch.
type DeliveryWorker struct {
	sender   ports.EventSender
	metadata ports.SendMetadata
	policy   RetryPolicy
	clock    clock.Clock
	logger   ports.Logger
	emitter  SendEventEmitter
}

// NewDeliveryWorker creates a worker. A nil emitter disables notifications.
func NewDeliveryWorker(
	sender ports.EventSender,
	metadata ports.SendMetadata,
	policy RetryPolicy,
	clk clock.Clock,
	logger ports.Logger,
	emitter SendEventEmitter,
) *DeliveryWorker {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	return &DeliveryWorker{
		sender:   sender,
		metadata: metadata,
		policy:   policy,
		clock:    clk,
		logger:   logger,
		emitter:  emitter,
	}
}

// Deliver sends batch until it is accepted, rejected (4xx), or the retry
// budget is spent. Attempt n waits Backoff.Delay(n) before attempt n+1.
// Cancelling ctx during a wait ends the cycle as lost.
func (w *DeliveryWorker) Deliver(ctx context.Context, batch *domain.Batch) Outcome {
	if batch.Empty() {
		return OutcomeDelivered
	}

	start := w.clock.Now()
	for attempt := 0; ; attempt++ {
		err := w.sender.Send(ctx, batch, w.metadata)
		if err == nil {
			duration := w.clock.Now().Sub(start)
			w.logger.Debug("sent batch",
				ports.Int("events", batch.Size()),
				ports.Int("attempts", attempt+1),
				ports.Duration("duration", duration),
			)
			w.emitter.OnSendSuccess(batch.Size(), attempt+1, duration)
			return OutcomeDelivered
		}

		if !domain.IsRetryable(err) {
			w.logger.Error("batch rejected",
				ports.Err(err),
				ports.Int("events", batch.Size()),
			)
			w.emitter.OnSendError(err, batch.Size(), false)
			return OutcomeRejected
		}

		if attempt >= w.policy.MaxRetries {
			lost := fmt.Errorf("%w: %w", domain.ErrDeliveryLost, err)
			w.logger.Error("batch dropped after retries",
				ports.Err(err),
				ports.Int("events", batch.Size()),
				ports.Int("attempts", attempt+1),
			)
			w.emitter.OnSendError(lost, batch.Size(), true)
			return OutcomeLost
		}

		delay := w.policy.Backoff.Delay(attempt)
		w.logger.Warn("send failed, retrying",
			ports.Err(err),
			ports.Int("attempt", attempt+1),
			ports.Duration("retry_in", delay),
		)
		w.emitter.OnRetry(attempt+1, delay, err)

		select {
		case <-ctx.Done():
			lost := fmt.Errorf("%w: %w", domain.ErrDeliveryLost, ctx.Err())
			w.logger.Error("batch dropped, delivery cancelled",
				ports.Err(err),
				ports.Int("events", batch.Size()),
			)
			w.emitter.OnSendError(lost, batch.Size(), true)
			return OutcomeLost
		case <-w.clock.After(delay):
		}
	}
}
