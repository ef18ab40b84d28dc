// Package stream holds the consumer-side building blocks: the connection
// state machine, inbound frame validation and the per-connection read loop.
package stream
