package shipper

import (
	"fmt"
	"net/url"
	"time"

	"github.com/sijil-dev/logship/internal/app"
	"github.com/sijil-dev/logship/internal/backoff"
	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/queue"
)

// Defaults applied by SetDefaults.
const (
	DefaultEndpoint      = "http://localhost:8080/api/v1/logs"
	DefaultService       = "service"
	DefaultFlushInterval = time.Second
	MinFlushInterval     = 250 * time.Millisecond
	DefaultHTTPTimeout   = 10 * time.Second
	DefaultBatchSize     = app.DefaultBatchSize
	DefaultMaxQueueSize  = queue.DefaultCapacity
	DefaultWorkerCount   = app.DefaultWorkerCount
	DefaultMaxRetries    = app.DefaultMaxRetries
)

// DefaultRetryBase is the first retry delay; attempt n waits RetryBase*2^n.
var DefaultRetryBase = backoff.Retry.Initial

// Config holds the client configuration. AccessKey and Secret are required.
type Config struct {
	// Endpoint is the collector URL batches are POSTed to.
	Endpoint string

	// AccessKey is sent as X-Api-Key.
	AccessKey string

	// Secret is sent as the bearer token.
	Secret string

	// Service is the default service tag for events.
	Service string

	// FlushInterval is the period of the background flush. Values below
	// MinFlushInterval are raised to it.
	FlushInterval time.Duration

	BatchSize    int
	MaxQueueSize int
	WorkerCount  int

	// MaxRetries is the number of retries after the first failed attempt.
	// Negative disables retries.
	MaxRetries int
	RetryBase  time.Duration

	// HTTPTimeout bounds a single attempt when the default HTTP client is used.
	HTTPTimeout time.Duration

	// Compress gzips request bodies.
	Compress bool
}

// SetDefaults fills zero-valued fields.
func (c *Config) SetDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Service == "" {
		c.Service = DefaultService
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.FlushInterval < MinFlushInterval {
		c.FlushInterval = MinFlushInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = DefaultMaxQueueSize
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBase <= 0 {
		c.RetryBase = DefaultRetryBase
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
}

// Validate checks the configuration. Call SetDefaults first.
func (c *Config) Validate() error {
	if c.AccessKey == "" || c.Secret == "" {
		return domain.ErrCredentialsMissing
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q is not an absolute URL", domain.ErrInvalidConfig, c.Endpoint)
	}
	if c.BatchSize > c.MaxQueueSize {
		return fmt.Errorf("%w: batch size %d exceeds queue size %d",
			domain.ErrInvalidConfig, c.BatchSize, c.MaxQueueSize)
	}
	return nil
}
