// Package shipper is the producer side of logship: a client that buffers
// log events in a bounded queue and ships them to the collector in batches.
//
// # Usage
//
//	client, err := shipper.New(shipper.Config{
//	    AccessKey: os.Getenv("LOGSHIP_ACCESS_KEY"),
//	    Secret:    os.Getenv("LOGSHIP_SECRET"),
//	    Service:   "checkout",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close(context.Background())
//
//	client.Info("order placed", map[string]any{"order_id": 42})
//
// # Delivery
//
// Events are flushed every FlushInterval and whenever BatchSize events are
// queued. At most WorkerCount batches are in flight. A batch that fails with
// a 5xx or transport error is retried MaxRetries times with exponential
// backoff; a 4xx response drops it immediately. Events that arrive while
// the queue is full are dropped.
//
// Close drains the queue before returning. Events buffered in memory are
// lost if the process exits without calling Close.
package shipper
