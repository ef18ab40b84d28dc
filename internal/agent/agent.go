package agent

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hpcloud/tail"

	"github.com/sijil-dev/logship/internal/clock"
	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
)

// Sink receives parsed lines. *shipper.Client satisfies it.
type Sink interface {
	LogAt(service string, level domain.Level, message string, at time.Time, data map[string]any)
}

// Config holds the tail settings.
type Config struct {
	// File is the path to tail.
	File string

	// FromStart reads the existing content before following. By default
	// only lines appended after startup are shipped.
	FromStart bool

	// Poll uses stat polling instead of inotify.
	Poll bool
}

// Agent tails a file into a Sink.
type Agent struct {
	cfg    Config
	parser Parser
	sink   Sink
	clock  clock.Clock
	logger ports.Logger
}

// New creates an agent.
func New(cfg Config, parser Parser, sink Sink, clk clock.Clock, logger ports.Logger) *Agent {
	return &Agent{cfg: cfg, parser: parser, sink: sink, clock: clk, logger: logger}
}

// Run tails until ctx is cancelled. Rotated or truncated files are reopened.
func (a *Agent) Run(ctx context.Context) error {
	tc := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      a.cfg.Poll,
		Logger:    tail.DiscardingLogger,
	}
	if !a.cfg.FromStart {
		tc.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(a.cfg.File, tc)
	if err != nil {
		return fmt.Errorf("tail %s: %w", a.cfg.File, err)
	}
	defer t.Cleanup()

	a.logger.Info("tailing file",
		ports.String("file", a.cfg.File),
		ports.Bool("from_start", a.cfg.FromStart),
	)

	var shipped, skipped int64
	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			a.logger.Info("tail stopped",
				ports.String("file", a.cfg.File),
				ports.Int64("lines", shipped),
				ports.Int64("skipped", skipped),
			)
			return nil

		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line == nil {
				continue
			}
			if line.Err != nil {
				a.logger.Warn("tail read error", ports.Err(line.Err))
				continue
			}

			rec, ok := a.parser.Parse(line.Text)
			if !ok {
				skipped++
				continue
			}
			at := rec.Time
			if at.IsZero() {
				at = a.clock.Now()
			}
			a.sink.LogAt(rec.Service, rec.Level, rec.Message, at, rec.Data)
			shipped++
		}
	}
}
