package ports

import (
	"context"

	"github.com/sijil-dev/logship/internal/domain"
)

// EventSender transmits event batches to the collector.
// Implementations handle serialization, HTTP communication, and authentication.
type EventSender interface {
	// Send performs exactly one delivery attempt for the batch.
	// Returns nil on success. A *domain.StatusError is returned for non-2xx
	// responses; transport failures are returned wrapped.
	// Retries are the caller's responsibility.
	Send(ctx context.Context, batch *domain.Batch, metadata SendMetadata) error
}

// SendMetadata provides context for the send operation.
// This information is included in HTTP headers.
type SendMetadata struct {
	// Endpoint is the full collector URL
	Endpoint string

	// AccessKey is sent as X-Api-Key
	AccessKey string

	// Secret is sent as the bearer token
	Secret string
}
