package stream

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	logAdapter "github.com/sijil-dev/logship/internal/adapters/log"
	"github.com/sijil-dev/logship/internal/adapters/ws"
	"github.com/sijil-dev/logship/internal/backoff"
	"github.com/sijil-dev/logship/internal/clock"
	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
	istream "github.com/sijil-dev/logship/internal/stream"
)

// Supervisor keeps a live subscription open, reconnecting with capped
// exponential backoff after unclean closures. A clean closure, either
// server-initiated or through Close, is final.
type Supervisor struct {
	config   Config
	opts     options
	logger   ports.Logger
	clock    clock.Clock
	backoff  backoff.Backoff
	machine  *istream.StateMachine
	ctx      context.Context
	cancel   context.CancelFunc

	mu sync.Mutex
	// generation identifies the current connection attempt. Callbacks
	// carrying an older generation are ignored.
	generation uint64
	conn       *istream.Connection
	timer      *clock.Timer
	failures   int
	closed     bool
	events     []Event
}

// New creates a supervisor in StateClosed. Call Connect to start.
func New(cfg Config, opts ...Option) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logAdapter.NewNoopLogger()
	}
	if o.notifier == nil {
		o.notifier = noopNotifier{}
	}
	if o.tokenSource == nil {
		o.tokenSource = ports.StaticToken(cfg.Token)
	}
	if o.dialer == nil {
		o.dialer = ws.NewDialer(o.logger)
	}
	if o.clock == nil {
		o.clock = clock.Real()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		config:  cfg,
		opts:    o,
		logger:  o.logger,
		clock:   o.clock,
		backoff: backoff.Reconnect,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.machine = istream.NewStateMachine(o.logger, &emitterWrapper{handler: o.eventHandler})
	return s, nil
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	return s.machine.State()
}

// Events returns the events received so far, newest first.
func (s *Supervisor) Events() []Event {
	s.mu.Lock()
	out := slices.Clone(s.events)
	s.mu.Unlock()
	slices.Reverse(out)
	return out
}

// Connect starts a connection attempt. It is a no-op while a connection is
// open or being established, and cancels a pending reconnect timer.
// Returns ErrClosed after Close.
func (s *Supervisor) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.machine.CanConnect() {
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return s.startLocked("connect requested")
}

// Close tears the subscription down: the reconnect timer is cancelled, a
// normal-closure frame is sent and no further reconnect is attempted. It
// does not wait for the server's acknowledgment.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	conn := s.conn
	s.conn = nil
	if s.machine.State() != StateClosed {
		_ = s.machine.TransitionTo(StateClosed, istream.TeardownReason)
	}
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		return conn.Close(istream.TeardownReason)
	}
	return nil
}

// startLocked moves to CONNECTING and dials in the background.
func (s *Supervisor) startLocked(reason string) error {
	if err := s.machine.TransitionTo(StateConnecting, reason); err != nil {
		return err
	}
	s.generation++
	go s.dial(s.generation)
	return nil
}

func (s *Supervisor) dial(gen uint64) {
	conn, err := s.open()

	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close(istream.TeardownReason)
		}
		return
	}
	if err != nil {
		note := s.failLocked(err)
		s.mu.Unlock()
		note()
		return
	}

	reconnected := s.failures > 0
	s.conn = istream.NewConnection(conn, gen, s.logger)
	if err := s.machine.TransitionTo(StateOpen, "handshake complete"); err != nil {
		s.logger.Error("unexpected state on open", ports.Err(err))
	}
	s.failures = 0
	c := s.conn
	s.mu.Unlock()

	s.logger.Info("stream connected", ports.Int64("project_id", s.config.ProjectID))
	if reconnected {
		s.opts.notifier.Success("Reconnected to live stream")
	}

	err = c.Run(func(ev Event) { s.receive(gen, ev) })
	_ = c.Close(istream.ReleaseReason)
	s.finish(gen, err)
}

// open fetches a token and performs the handshake.
func (s *Supervisor) open() (ports.StreamConn, error) {
	token, err := s.opts.tokenSource.Token(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: token: %w", domain.ErrStreamDisconnected, err)
	}
	u, err := subscriptionURL(s.config.URL, s.config.ProjectID, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStreamDisconnected, err)
	}
	return s.opts.dialer.Dial(s.ctx, u)
}

func (s *Supervisor) receive(gen uint64, ev Event) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.events = append(s.events, ev)
	s.mu.Unlock()

	if s.opts.onEvent != nil {
		s.opts.onEvent(ev)
	}
}

// finish handles the end of the read loop for generation gen.
func (s *Supervisor) finish(gen uint64, err error) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.conn = nil

	if errors.Is(err, domain.ErrCleanClose) {
		_ = s.machine.TransitionTo(StateClosed, "server closed normally")
		s.mu.Unlock()
		s.logger.Info("stream closed by server")
		return
	}

	note := s.failLocked(err)
	s.mu.Unlock()
	note()
}

// failLocked moves to ERROR and schedules the next attempt. The returned
// function sends the user notification and must be called without the lock.
func (s *Supervisor) failLocked(cause error) func() {
	if err := s.machine.TransitionTo(StateError, cause.Error()); err != nil {
		s.logger.Error("unexpected state on failure", ports.Err(err))
	}

	delay := s.backoff.Delay(s.failures)
	first := s.failures == 0
	s.failures++
	attempt := s.failures
	gen := s.generation
	s.timer = s.clock.AfterFunc(delay, func() { s.reconnect(gen) })

	s.logger.Warn("stream disconnected",
		ports.Err(cause),
		ports.Int("attempt", attempt),
		ports.Duration("retry_in", delay),
	)

	return func() {
		if h := s.opts.eventHandler; h != nil {
			h.OnReconnect(ReconnectEvent{Attempt: attempt, Delay: delay, Error: cause})
		}
		if first {
			s.opts.notifier.Error(fmt.Sprintf("Connection lost. Retrying in %ds...", int(delay.Seconds())))
		}
	}
}

func (s *Supervisor) reconnect(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation {
		return
	}
	s.timer = nil
	if err := s.startLocked("reconnect"); err != nil {
		s.logger.Error("reconnect failed", ports.Err(err))
	}
}

// emitterWrapper adapts EventHandler to the state machine emitter.
type emitterWrapper struct {
	handler EventHandler
}

func (e *emitterWrapper) OnStateChange(previous, current istream.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{Previous: previous, Current: current, Reason: reason})
}
