package agent

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logAdapter "github.com/sijil-dev/logship/internal/adapters/log"
	"github.com/sijil-dev/logship/internal/clock"
	"github.com/sijil-dev/logship/internal/domain"
)

type entry struct {
	service string
	level   domain.Level
	message string
	at      time.Time
}

type memorySink struct {
	mu      sync.Mutex
	entries []entry
}

func (s *memorySink) LogAt(service string, level domain.Level, message string, at time.Time, _ map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{service, level, message, at})
}

func (s *memorySink) Entries() []entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entry(nil), s.entries...)
}

func TestAgent_TailsFromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	content := "2025-01-10 09:15:00 [api] [INFO] started\n" +
		"plain line\n" +
		"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	now := time.Date(2025, 3, 3, 3, 3, 3, 0, time.UTC)
	sink := &memorySink{}
	a := New(Config{File: path, FromStart: true, Poll: true}, NewRegexParser(), sink,
		clock.Fake(now), logAdapter.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sink.Entries()) == 2 }, 5*time.Second, 10*time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("2025-01-10 09:16:00 [CRITICAL] disk full\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return len(sink.Entries()) == 3 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	entries := sink.Entries()
	assert.Equal(t, "api", entries[0].service)
	assert.Equal(t, "started", entries[0].message)
	assert.Equal(t, time.Date(2025, 1, 10, 9, 15, 0, 0, time.UTC), entries[0].at)

	assert.Equal(t, "plain line", entries[1].message)
	assert.Equal(t, now, entries[1].at)

	assert.Equal(t, domain.LevelCritical, entries[2].level)
	assert.Empty(t, entries[2].service)
}

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`service = "a"`), 0644))

	var reloads atomic.Int32
	w := NewConfigWatcher(path, func() error {
		reloads.Add(1)
		return nil
	}, logAdapter.NewNoopLogger())
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Writes to other files in the directory are ignored.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0644)
		_ = os.WriteFile(path, []byte(`service = "b"`), 0644)
		return reloads.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestConfigWatcher_MissingDirectory(t *testing.T) {
	w := NewConfigWatcher("/nonexistent/dir/config.toml", func() error { return nil }, logAdapter.NewNoopLogger())
	assert.Error(t, w.Run(context.Background()))
}
