package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/sijil-dev/logship/internal/domain"
	"github.com/sijil-dev/logship/internal/ports"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4 * 1024

// maxPooledBuffer is the largest buffer returned to the pool.
const maxPooledBuffer = 1 << 20

var (
	bufferPool = sync.Pool{
		New: func() any { return bytes.NewBuffer(make([]byte, 0, 64*1024)) },
	}
	gzipPool = sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
			return w
		},
	}
)

// EventSender implements ports.EventSender by POSTing a JSON array of
// events to the collector.
type EventSender struct {
	client    ports.HTTPClient
	logger    ports.Logger
	userAgent string
	compress  bool
}

// NewEventSender creates a new HTTP event sender. When compress is true the
// body is gzip-encoded and sent with Content-Encoding: gzip.
func NewEventSender(client ports.HTTPClient, logger ports.Logger, userAgent string, compress bool) *EventSender {
	return &EventSender{
		client:    client,
		logger:    logger,
		userAgent: userAgent,
		compress:  compress,
	}
}

// Send performs one delivery attempt for the batch.
func (s *EventSender) Send(ctx context.Context, batch *domain.Batch, metadata ports.SendMetadata) error {
	if batch.Empty() {
		return nil
	}

	body, err := s.encode(batch.Events)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, metadata.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", metadata.AccessKey)
	req.Header.Set("Authorization", "Bearer "+metadata.Secret)
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	if s.compress {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// encode serializes events into a fresh byte slice. The pooled buffer is
// never handed to the transport.
func (s *EventSender) encode(events []domain.Event) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer putBuffer(buf)

	if !s.compress {
		if err := json.NewEncoder(buf).Encode(events); err != nil {
			return nil, fmt.Errorf("marshal events: %w", err)
		}
		return bytes.Clone(buf.Bytes()), nil
	}

	gz := gzipPool.Get().(*gzip.Writer)
	gz.Reset(buf)
	defer gzipPool.Put(gz)

	if err := json.NewEncoder(gz).Encode(events); err != nil {
		_ = gz.Close()
		return nil, fmt.Errorf("marshal events: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compress events: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
