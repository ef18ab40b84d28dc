package domain

// Batch is a contiguous run of events removed atomically from the queue head.
// Delivery is all-or-nothing: the whole batch succeeds or the whole batch is
// eventually dropped.
type Batch struct {
	Events []Event
}

// NewBatch wraps events in a Batch.
func NewBatch(events []Event) *Batch {
	return &Batch{Events: events}
}

// Size returns the number of events in the batch.
func (b *Batch) Size() int {
	return len(b.Events)
}

// Empty returns true if the batch has no events.
func (b *Batch) Empty() bool {
	return len(b.Events) == 0
}
