// Package logship ships application logs to a collector and follows the
// live event stream.
//
// The producer side lives in pkg/shipper and the consumer side in
// pkg/stream. This package re-exports their entry points for callers that
// want a single import.
//
// Example usage:
//
//	client, err := logship.NewShipper(logship.ShipperConfig{
//	    AccessKey: "key",
//	    Secret:    "secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(context.Background())
//	client.Info("started", nil)
//
//	sup, err := logship.NewStream(logship.StreamConfig{
//	    URL:       "ws://localhost:8080/api/v1/logs/ws",
//	    ProjectID: 42,
//	    Token:     "token",
//	}, stream.OnEvent(func(ev logship.StreamEvent) { fmt.Println(ev.Message) }))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = sup.Connect()
//	defer sup.Close()
package logship

import (
	"github.com/sijil-dev/logship/pkg/shipper"
	"github.com/sijil-dev/logship/pkg/stream"
)

// ShipperConfig configures a shipping client.
type ShipperConfig = shipper.Config

// Shipper is the batching log client.
type Shipper = shipper.Client

// StreamConfig configures a stream subscription.
type StreamConfig = stream.Config

// Stream is the reconnecting stream supervisor.
type Stream = stream.Supervisor

// StreamEvent is one event received from the live stream.
type StreamEvent = stream.Event

// NewShipper creates a shipping client and starts its flush ticker.
func NewShipper(cfg ShipperConfig, opts ...shipper.Option) (*Shipper, error) {
	return shipper.New(cfg, opts...)
}

// NewStream creates a stream supervisor in the closed state.
func NewStream(cfg StreamConfig, opts ...stream.Option) (*Stream, error) {
	return stream.New(cfg, opts...)
}

// Version is the library version.
const Version = shipper.Version
