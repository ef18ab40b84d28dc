package stream

import (
	"errors"

	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
)

// TeardownReason is the close reason sent when the client tears down.
const TeardownReason = "client teardown"

// ReleaseReason is the close reason sent when a finished read loop releases
// its transport.
const ReleaseReason = "stream ended"

// Connection reads frames from one transport connection and hands valid
// events to a callback. A Connection is single-use.
type Connection struct {
	conn       ports.StreamConn
	generation uint64
	logger     ports.Logger
}

// NewConnection wraps an established transport connection.
func NewConnection(conn ports.StreamConn, generation uint64, logger ports.Logger) *Connection {
	return &Connection{conn: conn, generation: generation, logger: logger}
}

// Generation returns the connection attempt number this connection belongs to.
func (c *Connection) Generation() uint64 {
	return c.generation
}

// Run reads until the transport fails or closes, calling onEvent for every
// valid frame in receipt order. Invalid frames are logged and skipped.
// The returned error wraps ErrCleanClose or ErrStreamDisconnected.
func (c *Connection) Run(onEvent func(domain.StreamEvent)) error {
	for {
		frame, err := c.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, domain.ErrCleanClose) || errors.Is(err, domain.ErrStreamDisconnected) {
				return err
			}
			return errors.Join(domain.ErrStreamDisconnected, err)
		}

		ev, err := ParseEvent(frame)
		if err != nil {
			c.logger.Warn("dropping invalid stream frame",
				ports.Err(err),
				ports.Int64("generation", int64(c.generation)),
			)
			continue
		}
		onEvent(ev)
	}
}

// Close closes the transport with a normal-closure frame carrying reason.
func (c *Connection) Close(reason string) error {
	return c.conn.Close(reason)
}
