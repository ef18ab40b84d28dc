package shipper

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	httpAdapter "github.com/sijil-dev/logship/internal/adapters/http"
	logAdapter "github.com/sijil-dev/logship/internal/adapters/log"
	"github.com/sijil-dev/logship/internal/app"
	"github.com/sijil-dev/logship/internal/backoff"
	"github.com/sijil-dev/logship/internal/clock"
	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
	"github.com/sijil-dev/logship/internal/queue"
)

// Client buffers log events and ships them to the collector in batches.
// Logging never blocks and never fails; events that do not fit in the
// queue are dropped and counted. Use New() to create a client and Close()
// to drain it.
type Client struct {
	config     Config
	logger     ports.Logger
	clock      clock.Clock
	queue      *queue.EventQueue
	dispatcher *app.Dispatcher
	counters   *counters

	mu      sync.RWMutex
	service string

	ticker   *clock.Ticker
	stop     chan struct{}
	loopDone chan struct{}
	closed   atomic.Bool
}

// New creates a client and starts its flush ticker.
// Returns ErrCredentialsMissing if the access key or secret is empty.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
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
	if o.clock == nil {
		o.clock = clock.Real()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if o.sender == nil {
		o.sender = httpAdapter.NewEventSender(o.httpClient, o.logger, UserAgent(), cfg.Compress)
	}

	ctrs := &counters{}
	emitter := &emitterWrapper{handler: o.eventHandler, counters: ctrs}

	policy := app.RetryPolicy{
		MaxRetries: max(cfg.MaxRetries, 0),
		Backoff:    backoff.Backoff{Initial: cfg.RetryBase},
	}
	metadata := ports.SendMetadata{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		Secret:    cfg.Secret,
	}
	worker := app.NewDeliveryWorker(o.sender, metadata, policy, o.clock, o.logger, emitter)

	q := queue.New(cfg.MaxQueueSize)

	// Deliveries run on a context that is never cancelled so Close can
	// drain; Close's own ctx bounds how long the caller waits.
	dispatcher := app.NewDispatcher(context.Background(), q, worker, o.logger, cfg.BatchSize, cfg.WorkerCount)

	c := &Client{
		config:     cfg,
		logger:     o.logger,
		clock:      o.clock,
		queue:      q,
		dispatcher: dispatcher,
		counters:   ctrs,
		service:    cfg.Service,
		ticker:     o.clock.NewTicker(cfg.FlushInterval),
		stop:       make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
	go c.run()

	o.logger.Debug("shipper started",
		ports.String("endpoint", cfg.Endpoint),
		ports.Duration("flush_interval", cfg.FlushInterval),
		ports.Int("batch_size", cfg.BatchSize),
		ports.Int("workers", cfg.WorkerCount),
	)
	return c, nil
}

func (c *Client) run() {
	defer close(c.loopDone)
	for {
		select {
		case <-c.stop:
			return
		case <-c.ticker.C:
			c.dispatcher.Flush()
		}
	}
}

// Log records an event with the default service tag.
func (c *Client) Log(level Level, message string, data map[string]any) {
	c.enqueue(level, message, c.Service(), c.clock.Now(), data)
}

// LogService records an event with an explicit service tag.
func (c *Client) LogService(service string, level Level, message string, data map[string]any) {
	c.enqueue(level, message, service, c.clock.Now(), data)
}

// LogAt records an event with an explicit service tag and timestamp. An
// empty service falls back to the default.
func (c *Client) LogAt(service string, level Level, message string, at time.Time, data map[string]any) {
	if service == "" {
		service = c.Service()
	}
	c.enqueue(level, message, service, at, data)
}

// Debug records a debug event.
func (c *Client) Debug(message string, data map[string]any) { c.Log(LevelDebug, message, data) }

// Info records an info event.
func (c *Client) Info(message string, data map[string]any) { c.Log(LevelInfo, message, data) }

// Warn records a warn event.
func (c *Client) Warn(message string, data map[string]any) { c.Log(LevelWarn, message, data) }

// Error records an error event.
func (c *Client) Error(message string, data map[string]any) { c.Log(LevelError, message, data) }

// Critical records a critical event.
func (c *Client) Critical(message string, data map[string]any) { c.Log(LevelCritical, message, data) }

// SetService changes the default service tag for subsequent events.
func (c *Client) SetService(service string) {
	if service == "" {
		return
	}
	c.mu.Lock()
	c.service = service
	c.mu.Unlock()
}

// Service returns the current default service tag.
func (c *Client) Service() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.service
}

func (c *Client) enqueue(level Level, message, service string, at time.Time, data map[string]any) {
	if c.closed.Load() {
		c.counters.dropped.Add(1)
		c.logger.Debug("event dropped, client closed")
		return
	}
	level = c.normalizeLevel(level)

	if !c.queue.Enqueue(domain.NewEvent(level, message, service, at, data)) {
		c.counters.dropped.Add(1)
		c.logger.Warn("event dropped",
			ports.Err(domain.ErrQueueFull),
			ports.Int("capacity", c.queue.Cap()),
		)
		return
	}
	c.counters.accepted.Add(1)

	if c.queue.Len() >= c.config.BatchSize {
		c.dispatcher.Flush()
	}
}

// normalizeLevel maps aliases such as "WARNING" onto the wire enum and
// falls back to info for anything unknown, so one bad level cannot get a
// whole batch rejected by the collector.
func (c *Client) normalizeLevel(level Level) Level {
	if level.Valid() {
		return level
	}
	parsed, err := domain.ParseLevel(string(level))
	if err != nil {
		c.logger.Warn("unknown level, using info", ports.String("level", string(level)))
		return LevelInfo
	}
	return parsed
}

// Close stops the flush ticker and drains the queue. It returns once every
// buffered event has been delivered or dropped, or when ctx is done.
// A second call returns ErrClosed.
func (c *Client) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	c.ticker.Stop()
	close(c.stop)
	<-c.loopDone

	for c.queue.Len() > 0 {
		if err := c.dispatcher.FlushWait(ctx); err != nil {
			return err
		}
	}
	if err := c.dispatcher.Wait(ctx); err != nil {
		return err
	}

	s := c.Stats()
	c.logger.Info("shipper closed",
		ports.Int64("delivered", int64(s.Delivered)),
		ports.Int64("lost", int64(s.Lost)),
		ports.Int64("rejected", int64(s.Rejected)),
		ports.Int64("dropped", int64(s.Dropped)),
	)
	return nil
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() Stats {
	return Stats{
		Accepted:  c.counters.accepted.Load(),
		Dropped:   c.counters.dropped.Load(),
		Delivered: c.counters.delivered.Load(),
		Rejected:  c.counters.rejected.Load(),
		Lost:      c.counters.lost.Load(),
		Queued:    c.queue.Len(),
		InFlight:  c.dispatcher.InFlight(),
	}
}
