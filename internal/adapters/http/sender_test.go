package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logAdapter "github.com/sijil-dev/logship/internal/adapters/log"
	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
)

type captured struct {
	header http.Header
	events []domain.Event
}

func collector(t *testing.T, status int, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.header = r.Header.Clone()

		var body io.Reader = r.Body
		if r.Header.Get("Content-Encoding") == "gzip" {
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer gz.Close()
			body = gz
		}
		if err := json.NewDecoder(body).Decode(&got.events); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("collector says hi"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sampleBatch() *domain.Batch {
	return domain.NewBatch([]domain.Event{
		{Level: domain.LevelInfo, Message: "hello", Service: "api", Timestamp: "2024-01-01T00:00:00Z"},
		{Level: domain.LevelError, Message: "boom", Service: "api", Timestamp: "2024-01-01T00:00:01Z",
			Data: map[string]any{"code": "E42"}},
	})
}

func TestEventSender_Send(t *testing.T) {
	var got captured
	srv := collector(t, http.StatusAccepted, &got)
	s := NewEventSender(srv.Client(), logAdapter.NewNoopLogger(), "logship/test", false)

	err := s.Send(context.Background(), sampleBatch(), ports.SendMetadata{
		Endpoint: srv.URL, AccessKey: "pk_live", Secret: "sk_live",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "pk_live", got.header.Get("X-Api-Key"))
	assert.Equal(t, "Bearer sk_live", got.header.Get("Authorization"))
	assert.Equal(t, "logship/test", got.header.Get("User-Agent"))
	assert.Empty(t, got.header.Get("Content-Encoding"))

	require.Len(t, got.events, 2)
	assert.Equal(t, "hello", got.events[0].Message)
	assert.Equal(t, domain.LevelError, got.events[1].Level)
	assert.Equal(t, "E42", got.events[1].Data["code"])
}

func TestEventSender_SendCompressed(t *testing.T) {
	var got captured
	srv := collector(t, http.StatusOK, &got)
	s := NewEventSender(srv.Client(), logAdapter.NewNoopLogger(), "", true)

	require.NoError(t, s.Send(context.Background(), sampleBatch(), ports.SendMetadata{Endpoint: srv.URL}))
	assert.Equal(t, "gzip", got.header.Get("Content-Encoding"))
	assert.Len(t, got.events, 2)
}

func TestEventSender_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
		{"server error", http.StatusInternalServerError, true},
		{"unavailable", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got captured
			srv := collector(t, tt.status, &got)
			s := NewEventSender(srv.Client(), logAdapter.NewNoopLogger(), "", false)

			err := s.Send(context.Background(), sampleBatch(), ports.SendMetadata{Endpoint: srv.URL})
			require.Error(t, err)

			var se *domain.StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, "collector says hi", se.Body)
			assert.Equal(t, tt.retryable, domain.IsRetryable(err))
		})
	}
}

func TestEventSender_TransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewEventSender(http.DefaultClient, logAdapter.NewNoopLogger(), "", false)
	err := s.Send(context.Background(), sampleBatch(), ports.SendMetadata{Endpoint: url})
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestEventSender_EmptyBatch(t *testing.T) {
	s := NewEventSender(http.DefaultClient, logAdapter.NewNoopLogger(), "", false)
	assert.NoError(t, s.Send(context.Background(), domain.NewBatch(nil), ports.SendMetadata{Endpoint: "http://invalid"}))
}
