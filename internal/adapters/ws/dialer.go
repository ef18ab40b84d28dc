package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
)

const (
	handshakeTimeout = 10 * time.Second
	closeWriteWait   = time.Second
	maxFrameSize     = 1 << 20
)

// Dialer implements ports.StreamDialer over a websocket.
type Dialer struct {
	dialer *websocket.Dialer
	logger ports.Logger
}

// NewDialer creates a websocket dialer.
func NewDialer(logger ports.Logger) *Dialer {
	return &Dialer{
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
		logger: logger,
	}
}

// Dial performs the websocket handshake.
func (d *Dialer) Dial(ctx context.Context, url string) (ports.StreamConn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: handshake returned %d: %w", domain.ErrStreamDisconnected, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: dial: %w", domain.ErrStreamDisconnected, err)
	}
	conn.SetReadLimit(maxFrameSize)
	return &Conn{conn: conn}, nil
}

// Conn is a read-only websocket subscription.
type Conn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// ReadMessage returns the next data frame. A close frame with code 1000 is
// reported as domain.ErrCleanClose; anything else ends the stream with
// domain.ErrStreamDisconnected.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err == nil {
		return data, nil
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code == websocket.CloseNormalClosure {
		return nil, fmt.Errorf("%w: %s", domain.ErrCleanClose, ce.Text)
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrStreamDisconnected, err)
}

// Close sends a normal-closure frame and closes the socket without waiting
// for the peer's reply. Safe to call more than once.
func (c *Conn) Close(reason string) error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
