package shipper

import (
	"github.com/sijil-dev/logship/internal/clock"
	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// Sender performs a single delivery attempt for a batch.
type Sender = ports.EventSender

// SendMetadata carries the endpoint and credentials for a send.
type SendMetadata = ports.SendMetadata

// Batch is a group of events delivered together.
type Batch = domain.Batch

// Event is a single log event.
type Event = domain.Event

// Level is the severity of an event.
type Level = domain.Level

const (
	LevelDebug    = domain.LevelDebug
	LevelInfo     = domain.LevelInfo
	LevelWarn     = domain.LevelWarn
	LevelError    = domain.LevelError
	LevelCritical = domain.LevelCritical
)

// Errors returned by the client.
var (
	ErrCredentialsMissing = domain.ErrCredentialsMissing
	ErrInvalidConfig      = domain.ErrInvalidConfig
	ErrClosed             = domain.ErrClosed
)

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	eventHandler EventHandler
	clock        clock.Clock
	sender       ports.EventSender
}

// WithHTTPClient sets a custom HTTP client for collector requests.
// If not provided, a client with Config.HTTPTimeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for diagnostics.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for delivery events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// withClock replaces the wall clock used for timestamps, the flush ticker
// and retry waits. Tests use it to drive time from a fake clock.
func withClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithSender replaces the HTTP sender. WithHTTPClient has no effect when
// a sender is supplied.
func WithSender(s Sender) Option {
	return func(o *options) {
		o.sender = s
	}
}
