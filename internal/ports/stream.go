package ports

import "context"

// StreamDialer opens a read-only subscription to the live event stream.
type StreamDialer interface {
	// Dial performs the handshake against url. A returned error means the
	// connection never opened.
	Dial(ctx context.Context, url string) (StreamConn, error)
}

// StreamConn is one open subscription.
type StreamConn interface {
	// ReadMessage blocks until the next frame arrives. When the connection
	// ends it returns an error wrapping domain.ErrCleanClose for a normal
	// closure, or domain.ErrStreamDisconnected otherwise.
	ReadMessage() ([]byte, error)

	// Close sends a normal-closure frame carrying reason and releases the
	// connection. It does not wait for the remote acknowledgment.
	Close(reason string) error
}

// TokenSource supplies the bearer token used to authorize a subscription,
// typically backed by a credential or session store.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

// Token returns the fixed token.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}
