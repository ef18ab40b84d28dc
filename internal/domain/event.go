package domain

import (
	"fmt"
	"strings"
	"time"
)

// Level is the severity of a log event.
type Level string

const (
	LevelDebug    Level = "debug"
	LevelInfo     Level = "info"
	LevelWarn     Level = "warn"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError, LevelCritical:
		return true
	}
	return false
}

// ParseLevel normalizes s into a Level. Common aliases ("warning", "fatal",
// "err") are accepted so agent parsers can map foreign log formats.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug, nil
	case "info", "notice":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "err":
		return LevelError, nil
	case "critical", "crit", "fatal", "panic":
		return LevelCritical, nil
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// TimestampLayout is the wire format of Event.Timestamp.
const TimestampLayout = time.RFC3339Nano

// Event is a single log event. The timestamp is assigned from the client
// clock when the event is created, not when it is sent.
type Event struct {
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Service   string         `json:"service"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// NewEvent builds an Event stamped with at. The data map is copied so later
// mutation by the caller cannot alter a queued event.
func NewEvent(level Level, message, service string, at time.Time, data map[string]any) Event {
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return Event{
		Level:     level,
		Message:   message,
		Service:   service,
		Timestamp: at.UTC().Format(TimestampLayout),
		Data:      copied,
	}
}

// StreamEvent is an event received on the live stream.
type StreamEvent struct {
	Event
	ProjectID int64 `json:"project_id"`
}
