package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
)

// scriptedSender returns errors from script in order, then nil.
type scriptedSender struct {
	mu      sync.Mutex
	script  []error
	calls   int
	batches []int
}

func (s *scriptedSender) Send(_ context.Context, batch *domain.Batch, _ ports.SendMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, batch.Size())
	i := s.calls
	s.calls++
	if i < len(s.script) {
		return s.script[i]
	}
	return nil
}

func (s *scriptedSender) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedSender) Sizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.batches...)
}

// blockingSender blocks every Send until release is closed.
type blockingSender struct {
	started atomic.Int32
	release chan struct{}
}

func newBlockingSender() *blockingSender {
	return &blockingSender{release: make(chan struct{})}
}

func (s *blockingSender) Send(ctx context.Context, _ *domain.Batch, _ ports.SendMetadata) error {
	s.started.Add(1)
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type panicSender struct{}

func (panicSender) Send(context.Context, *domain.Batch, ports.SendMetadata) error {
	panic("boom")
}

type recordingEmitter struct {
	mu        sync.Mutex
	delays    []time.Duration
	successes int
	attempts  int
	errs      []error
	retryable []bool
}

func (e *recordingEmitter) OnSendSuccess(_ int, attempts int, _ time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.successes++
	e.attempts = attempts
}

func (e *recordingEmitter) OnSendError(err error, _ int, retryable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err)
	e.retryable = append(e.retryable, retryable)
}

func (e *recordingEmitter) OnRetry(_ int, delay time.Duration, _ error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delays = append(e.delays, delay)
}

func (e *recordingEmitter) Delays() []time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]time.Duration(nil), e.delays...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...ports.Field) {}
func (nopLogger) Info(string, ...ports.Field)  {}
func (nopLogger) Warn(string, ...ports.Field)  {}
func (nopLogger) Error(string, ...ports.Field) {}

func status(code int) error {
	return &domain.StatusError{StatusCode: code}
}

var errNetwork = errors.New("connection refused")

func testEvents(n int) []domain.Event {
	events := make([]domain.Event, n)
	for i := range events {
		events[i] = domain.Event{Level: domain.LevelInfo, Message: "m", Service: "svc"}
	}
	return events
}
