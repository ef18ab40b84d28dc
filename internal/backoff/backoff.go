// Package backoff computes exponential delays for delivery retries and
// stream reconnects.
package backoff

import "time"

// Default policies.
var (
	// Retry is the delivery retry policy: 100ms × 2^n, uncapped within the
	// small retry budget.
	Retry = Backoff{Initial: 100 * time.Millisecond}

	// Reconnect is the stream reconnect policy: min(1s × 2^n, 30s).
	Reconnect = Backoff{Initial: time.Second, Max: 30 * time.Second}
)

// Backoff is an exponential backoff without jitter.
// A zero Max means the delay is never capped.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay returns Initial × 2^n, capped at Max when Max is set.
// Negative n is treated as zero.
func (b Backoff) Delay(n int) time.Duration {
	d := b.Initial
	for i := 0; i < n; i++ {
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
		if d > (1<<62)/2 {
			// Doubling again would overflow time.Duration.
			break
		}
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}
