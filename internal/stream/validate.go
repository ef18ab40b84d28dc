package stream

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/sijil-dev/logship/internal/domain"
)

// ParseEvent decodes and validates one inbound frame. level, message,
// service and timestamp must be strings (timestamp in RFC3339), project_id
// must be an integer and data, when present, an object.
func ParseEvent(frame []byte) (domain.StreamEvent, error) {
	var raw map[string]any
	if err := json.Unmarshal(frame, &raw); err != nil {
		return domain.StreamEvent{}, fmt.Errorf("%w: %w", domain.ErrInvalidEvent, err)
	}
	if raw == nil {
		return domain.StreamEvent{}, fmt.Errorf("%w: not an object", domain.ErrInvalidEvent)
	}

	var ev domain.StreamEvent
	var err error
	if ev.Message, err = stringField(raw, "message"); err != nil {
		return domain.StreamEvent{}, err
	}
	if ev.Service, err = stringField(raw, "service"); err != nil {
		return domain.StreamEvent{}, err
	}
	level, err := stringField(raw, "level")
	if err != nil {
		return domain.StreamEvent{}, err
	}
	ev.Level = domain.Level(level)

	if ev.Timestamp, err = stringField(raw, "timestamp"); err != nil {
		return domain.StreamEvent{}, err
	}
	if _, err := time.Parse(time.RFC3339Nano, ev.Timestamp); err != nil {
		return domain.StreamEvent{}, fmt.Errorf("%w: timestamp %q is not RFC3339", domain.ErrInvalidEvent, ev.Timestamp)
	}

	if ev.ProjectID, err = integerField(raw, "project_id"); err != nil {
		return domain.StreamEvent{}, err
	}

	switch data := raw["data"].(type) {
	case nil:
		ev.Data = map[string]any{}
	case map[string]any:
		ev.Data = data
	default:
		return domain.StreamEvent{}, fmt.Errorf("%w: data is %T, want object", domain.ErrInvalidEvent, raw["data"])
	}
	return ev, nil
}

func stringField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", domain.ErrInvalidEvent, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", domain.ErrInvalidEvent, key, v)
	}
	return s, nil
}

func integerField(raw map[string]any, key string) (int64, error) {
	v, ok := raw[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", domain.ErrInvalidEvent, key)
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s is not an integer", domain.ErrInvalidEvent, key)
	}
	return int64(f), nil
}
