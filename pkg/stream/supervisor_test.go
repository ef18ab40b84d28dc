package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sijil-dev/logship/internal/clock"
	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
)

type fakeConn struct {
	frames    chan []byte
	end       chan error
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	reason string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		end:    make(chan error, 1),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case err := <-c.end:
		return nil, err
	case <-c.done:
		return nil, fmt.Errorf("%w: use of closed connection", domain.ErrStreamDisconnected)
	}
}

func (c *fakeConn) Close(reason string) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		close(c.done)
	})
	return nil
}

func (c *fakeConn) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

type fakeDialer struct {
	mu       sync.Mutex
	failNext int
	gate     chan struct{}
	urls     []string
	conns    []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, u string) (ports.StreamConn, error) {
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, u)
	if d.failNext > 0 {
		d.failNext--
		return nil, fmt.Errorf("%w: connection refused", domain.ErrStreamDisconnected)
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) Last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

type recordingHandler struct {
	mu         sync.Mutex
	changes    []StateChangeEvent
	reconnects []ReconnectEvent
}

func (h *recordingHandler) OnStateChange(e StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changes = append(h.changes, e)
}

func (h *recordingHandler) OnReconnect(e ReconnectEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reconnects = append(h.reconnects, e)
}

func (h *recordingHandler) Reconnects() []ReconnectEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ReconnectEvent(nil), h.reconnects...)
}

func (h *recordingHandler) count(s State) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.changes {
		if c.Current == s {
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.successes), len(n.errors)
}

type harness struct {
	sup      *Supervisor
	clock    *clock.FakeClock
	dialer   *fakeDialer
	handler  *recordingHandler
	notifier *recordingNotifier
}

func newHarness(t *testing.T, dialer *fakeDialer, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		clock:    clock.Fake(time.Unix(0, 0)),
		dialer:   dialer,
		handler:  &recordingHandler{},
		notifier: &recordingNotifier{},
	}
	opts = append([]Option{
		withClock(h.clock),
		WithDialer(dialer),
		WithEventHandler(h.handler),
		WithNotifier(h.notifier),
	}, opts...)

	sup, err := New(Config{URL: "ws://collector/api/v1/logs/ws", ProjectID: 7, Token: "tok"}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sup.Close() })
	h.sup = sup
	return h
}

func (h *harness) waitState(t *testing.T, s State) {
	t.Helper()
	require.Eventually(t, func() bool { return h.sup.State() == s },
		2*time.Second, time.Millisecond, "state never became %v", s)
}

// expectReconnect waits for reconnect n (1-based) to be scheduled, checks
// its delay and fires it.
func (h *harness) expectReconnect(t *testing.T, n int, delay time.Duration) {
	t.Helper()
	h.clock.WaitForTimers(1)
	require.Eventually(t, func() bool { return len(h.handler.Reconnects()) >= n },
		2*time.Second, time.Millisecond)
	assert.Equal(t, delay, h.handler.Reconnects()[n-1].Delay, "reconnect %d", n)
	h.clock.Advance(delay)
}

func validFrame(msg string) []byte {
	return []byte(fmt.Sprintf(`{"level":"warn","message":%q,"service":"api","timestamp":"2024-06-01T10:00:00Z","project_id":7}`, msg))
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty url", Config{ProjectID: 1}},
		{"http scheme", Config{URL: "http://host/ws", ProjectID: 1}},
		{"missing project", Config{URL: "ws://host/ws"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestSupervisor_SubscriptionURL(t *testing.T) {
	d := &fakeDialer{}
	h := newHarness(t, d, WithTokenSource(ports.StaticToken("session-token")))

	require.NoError(t, h.sup.Connect())
	h.waitState(t, StateOpen)

	u, err := url.Parse(d.urls[0])
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/logs/ws", u.Path)
	assert.Equal(t, "7", u.Query().Get("project_id"))
	assert.Equal(t, "session-token", u.Query().Get("token"))
}

func TestSupervisor_ReconnectBackoffIsCapped(t *testing.T) {
	d := &fakeDialer{failNext: 100}
	h := newHarness(t, d)

	require.NoError(t, h.sup.Connect())

	delays := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}
	for i, delay := range delays {
		h.expectReconnect(t, i+1, delay)
	}

	_, errs := h.notifier.counts()
	assert.Equal(t, 1, errs, "connection lost is only announced once per outage")
}

func TestSupervisor_OpenResetsBackoff(t *testing.T) {
	d := &fakeDialer{failNext: 2}
	h := newHarness(t, d)

	require.NoError(t, h.sup.Connect())
	h.expectReconnect(t, 1, time.Second)
	h.expectReconnect(t, 2, 2*time.Second)
	h.waitState(t, StateOpen)

	require.Eventually(t, func() bool { s, _ := h.notifier.counts(); return s == 1 },
		2*time.Second, time.Millisecond)

	// Unclean drop after a successful open starts over at 1s.
	d.Last().end <- fmt.Errorf("%w: abnormal closure", domain.ErrStreamDisconnected)
	h.expectReconnect(t, 3, time.Second)
	h.waitState(t, StateOpen)

	_, errs := h.notifier.counts()
	assert.Equal(t, 2, errs)
}

func TestSupervisor_InvalidFrameKeepsConnection(t *testing.T) {
	var mu sync.Mutex
	var received []string
	d := &fakeDialer{}
	h := newHarness(t, d, OnEvent(func(ev Event) {
		mu.Lock()
		received = append(received, ev.Message)
		mu.Unlock()
	}))

	require.NoError(t, h.sup.Connect())
	h.waitState(t, StateOpen)

	conn := d.Last()
	conn.frames <- validFrame("one")
	conn.frames <- []byte(`{"level":"info"}`)
	conn.frames <- []byte(`garbage`)
	conn.frames <- validFrame("two")
	conn.frames <- validFrame("three")

	require.Eventually(t, func() bool { return len(h.sup.Events()) == 3 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, StateOpen, h.sup.State())
	assert.Equal(t, 1, d.Dials())

	events := h.sup.Events()
	assert.Equal(t, "three", events[0].Message)
	assert.Equal(t, "one", events[2].Message)
	assert.Equal(t, int64(7), events[0].ProjectID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two", "three"}, received)
}

func TestSupervisor_CleanServerCloseDoesNotReconnect(t *testing.T) {
	d := &fakeDialer{}
	h := newHarness(t, d)

	require.NoError(t, h.sup.Connect())
	h.waitState(t, StateOpen)

	d.Last().end <- fmt.Errorf("%w: bye", domain.ErrCleanClose)
	h.waitState(t, StateClosed)

	h.clock.Advance(time.Minute)
	assert.Equal(t, 0, h.clock.PendingCount())
	assert.Equal(t, 1, d.Dials())
	assert.Equal(t, 1, h.handler.count(StateConnecting))
}

func TestSupervisor_FinishedConnectionIsReleased(t *testing.T) {
	tests := []struct {
		name  string
		end   error
		state State
	}{
		{"unclean drop", fmt.Errorf("%w: abnormal closure", domain.ErrStreamDisconnected), StateError},
		{"going away", fmt.Errorf("%w: going away", domain.ErrStreamDisconnected), StateError},
		{"clean server close", fmt.Errorf("%w: bye", domain.ErrCleanClose), StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDialer{}
			h := newHarness(t, d)

			require.NoError(t, h.sup.Connect())
			h.waitState(t, StateOpen)
			conn := d.Last()

			conn.end <- tt.end
			h.waitState(t, tt.state)

			select {
			case <-conn.done:
			case <-time.After(2 * time.Second):
				t.Fatal("transport was not closed after the read loop ended")
			}
			assert.Equal(t, "stream ended", conn.Reason())
		})
	}
}

func TestSupervisor_TeardownSuppressesReconnect(t *testing.T) {
	d := &fakeDialer{}
	h := newHarness(t, d)

	require.NoError(t, h.sup.Connect())
	h.waitState(t, StateOpen)
	conn := d.Last()

	require.NoError(t, h.sup.Close())
	assert.Equal(t, StateClosed, h.sup.State())
	assert.Equal(t, "client teardown", conn.Reason())

	h.clock.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, h.handler.count(StateConnecting))
	assert.Equal(t, StateClosed, h.sup.State())
	assert.ErrorIs(t, h.sup.Connect(), ErrClosed)
	assert.NoError(t, h.sup.Close())
}

func TestSupervisor_TeardownDuringBackoff(t *testing.T) {
	d := &fakeDialer{failNext: 1}
	h := newHarness(t, d)

	require.NoError(t, h.sup.Connect())
	h.clock.WaitForTimers(1)
	h.waitState(t, StateError)

	require.NoError(t, h.sup.Close())
	assert.Equal(t, StateClosed, h.sup.State())
	assert.Equal(t, 0, h.clock.PendingCount())

	h.clock.Advance(time.Minute)
	assert.Equal(t, 1, d.Dials())
}

func TestSupervisor_ConnectIsIdempotent(t *testing.T) {
	d := &fakeDialer{gate: make(chan struct{})}
	h := newHarness(t, d)

	require.NoError(t, h.sup.Connect())
	require.NoError(t, h.sup.Connect())
	assert.Equal(t, StateConnecting, h.sup.State())

	close(d.gate)
	h.waitState(t, StateOpen)
	require.NoError(t, h.sup.Connect())

	assert.Equal(t, 1, d.Dials())
	assert.Equal(t, 1, h.handler.count(StateConnecting))
}

func TestSupervisor_ConnectSkipsPendingBackoff(t *testing.T) {
	d := &fakeDialer{failNext: 1}
	h := newHarness(t, d)

	require.NoError(t, h.sup.Connect())
	h.clock.WaitForTimers(1)
	h.waitState(t, StateError)

	require.NoError(t, h.sup.Connect())
	h.waitState(t, StateOpen)
	assert.Equal(t, 0, h.clock.PendingCount())
	assert.Equal(t, 2, d.Dials())
}

func TestSupervisor_TokenFailureIsRetried(t *testing.T) {
	d := &fakeDialer{}
	ts := &flakyToken{failures: 1}
	h := newHarness(t, d, WithTokenSource(ts))

	require.NoError(t, h.sup.Connect())
	h.expectReconnect(t, 1, time.Second)
	h.waitState(t, StateOpen)
	assert.Equal(t, 1, d.Dials())
}

type flakyToken struct {
	mu       sync.Mutex
	failures int
}

func (f *flakyToken) Token(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return "", errors.New("session expired")
	}
	return "fresh", nil
}
