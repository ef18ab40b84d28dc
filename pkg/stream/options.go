package stream

import (
	"time"

	"github.com/sijil-dev/logship/internal/clock"
	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
	istream "github.com/sijil-dev/logship/internal/stream"
)

// Event is a validated event received from the stream.
type Event = domain.StreamEvent

// State is the connection state.
type State = istream.State

const (
	StateClosed     = istream.StateClosed
	StateConnecting = istream.StateConnecting
	StateOpen       = istream.StateOpen
	StateError      = istream.StateError
)

// Logger is the interface for structured logging.
type Logger = ports.Logger

// Notifier receives human-facing connectivity messages.
type Notifier = ports.Notifier

// TokenSource supplies the subscription token.
type TokenSource = ports.TokenSource

// Dialer opens transport connections.
type Dialer = ports.StreamDialer

// Errors returned by the supervisor.
var (
	ErrClosed        = domain.ErrClosed
	ErrInvalidConfig = domain.ErrInvalidConfig
)

// StateChangeEvent is emitted on every connection state change.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ReconnectEvent is emitted when a reconnect is scheduled.
type ReconnectEvent struct {
	// Attempt counts consecutive failures, starting at 1.
	Attempt int
	Delay   time.Duration
	Error   error
}

// EventHandler receives supervisor notifications. Methods are called
// synchronously and must not call back into the Supervisor.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnReconnect(ReconnectEvent)
}

// Option configures optional behavior of a Supervisor.
type Option func(*options)

type options struct {
	logger       ports.Logger
	notifier     ports.Notifier
	tokenSource  ports.TokenSource
	dialer       ports.StreamDialer
	clock        clock.Clock
	eventHandler EventHandler
	onEvent      func(Event)
}

// WithLogger sets a custom logger.
func WithLogger(logger Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithNotifier sets the sink for "connection lost" and "reconnected" messages.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithTokenSource fetches the token before every connection attempt.
func WithTokenSource(ts TokenSource) Option {
	return func(o *options) { o.tokenSource = ts }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// withClock replaces the wall clock used for reconnect timers. Tests use it
// to drive timers from a fake clock.
func withClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithEventHandler sets a handler for state and reconnect events.
func WithEventHandler(h EventHandler) Option {
	return func(o *options) { o.eventHandler = h }
}

// OnEvent registers a callback invoked for every valid event in receipt
// order. It runs on the read goroutine and must not block for long.
func OnEvent(fn func(Event)) Option {
	return func(o *options) { o.onEvent = fn }
}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Error(string)   {}
