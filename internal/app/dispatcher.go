package app

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
	"github.com/sijil-dev/logship/internal/queue"
)

// Default dispatcher tunables.
const (
	DefaultBatchSize   = 100
	DefaultWorkerCount = 3
)

// Dispatcher drains the queue into batches and hands each batch to the
// delivery worker, keeping at most workerCount deliveries in flight.
type Dispatcher struct {
	queue     *queue.EventQueue
	worker    *DeliveryWorker
	logger    ports.Logger
	batchSize int

	// ctx is the delivery context. It outlives Close so a drain completes.
	ctx context.Context

	sem      *semaphore.Weighted
	inFlight atomic.Int32
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher over q.
func NewDispatcher(
	ctx context.Context,
	q *queue.EventQueue,
	worker *DeliveryWorker,
	logger ports.Logger,
	batchSize, workerCount int,
) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	return &Dispatcher{
		queue:     q,
		worker:    worker,
		logger:    logger,
		batchSize: batchSize,
		ctx:       ctx,
		sem:       semaphore.NewWeighted(int64(workerCount)),
	}
}

// Flush dispatches one batch in the background. It is a no-op, returning
// false, when the queue is empty or every worker slot is busy; the next tick
// or size trigger will try again.
func (d *Dispatcher) Flush() bool {
	if d.queue.Len() == 0 {
		return false
	}
	if !d.sem.TryAcquire(1) {
		return false
	}
	d.inFlight.Add(1)

	events := d.queue.DequeueBatch(d.batchSize)
	if len(events) == 0 {
		d.release()
		return false
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.release()
		defer d.recoverPanic()
		d.worker.Deliver(d.ctx, domain.NewBatch(events))
	}()
	return true
}

// FlushWait waits for a free worker slot, then delivers one batch on the
// calling goroutine. It returns ctx.Err() if no slot frees up in time.
func (d *Dispatcher) FlushWait(ctx context.Context) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	d.inFlight.Add(1)
	defer d.release()
	defer d.recoverPanic()

	events := d.queue.DequeueBatch(d.batchSize)
	if len(events) == 0 {
		return nil
	}
	d.worker.Deliver(d.ctx, domain.NewBatch(events))
	return nil
}

// Wait blocks until every background delivery has finished.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight returns the number of deliveries currently holding a worker slot.
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

func (d *Dispatcher) release() {
	d.inFlight.Add(-1)
	d.sem.Release(1)
}

func (d *Dispatcher) recoverPanic() {
	if r := recover(); r != nil {
		d.logger.Error("delivery panicked", ports.Any("panic", r))
	}
}
