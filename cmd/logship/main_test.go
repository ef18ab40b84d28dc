package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sijil-dev/logship/internal/cliconfig"
	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/pkg/shipper"
	"github.com/sijil-dev/logship/pkg/stream"
)

func TestFormatEvent(t *testing.T) {
	ev := stream.Event{
		Event: domain.Event{
			Level:     domain.LevelWarn,
			Message:   "disk almost full",
			Service:   "storage",
			Timestamp: "2025-01-10T09:15:00Z",
			Data:      map[string]any{"used": 0.93, "mount": "/var"},
		},
		ProjectID: 7,
	}

	line := formatEvent(ev)
	assert.Contains(t, line, "2025-01-10T09:15:00Z")
	assert.Contains(t, line, "WARN")
	assert.Contains(t, line, "[storage]")
	assert.Contains(t, line, "disk almost full")
	assert.Contains(t, line, `mount="/var" used=0.93`)
}

func TestRenderer_WritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)
	r.Render(stream.Event{Event: domain.Event{Level: domain.LevelInfo, Message: "a"}})
	r.Render(stream.Event{Event: domain.Event{Level: domain.LevelInfo, Message: "b"}})
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestReloadService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`service = "billing"`), 0644))

	client, err := shipper.New(shipper.Config{AccessKey: "k", Secret: "s", Service: "api"})
	require.NoError(t, err)
	defer client.Close(context.Background())

	require.NoError(t, reloadService(client, path, map[string]bool{}))
	assert.Equal(t, "billing", client.Service())

	// An explicit --service flag wins over the file.
	client.SetService("api")
	require.NoError(t, reloadService(client, path, map[string]bool{"service": true}))
	assert.Equal(t, "api", client.Service())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "*****", mask("secret"))
}

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		json  bool
		want  zerolog.Level
	}{
		{"debug", false, zerolog.DebugLevel},
		{"WARN", true, zerolog.WarnLevel},
		{"", false, zerolog.InfoLevel},
		{"chatty", true, zerolog.InfoLevel},
	}
	for _, tt := range tests {
		cfg := cliconfig.DefaultConfig()
		cfg.LogLevel = tt.level
		cfg.LogJSON = tt.json
		assert.Equal(t, tt.want, newLogger(cfg).Logger().GetLevel(), "level %q", tt.level)
	}
}
