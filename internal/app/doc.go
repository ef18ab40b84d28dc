// Package app contains the producer-side delivery pipeline: the Dispatcher
// that drains the event queue into batches under a concurrency ceiling, and
// the DeliveryWorker that sends one batch with a bounded retry policy.
package app
