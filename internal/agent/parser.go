package agent

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/sijil-dev/logship/internal/domain"
)

// Record is one parsed log line. An empty Service means the shipper's
// default; a zero Time means "now".
type Record struct {
	Service string
	Level   domain.Level
	Message string
	Time    time.Time
	Data    map[string]any
}

// Parser turns a raw line into a Record. ok is false when the line should
// be skipped.
type Parser interface {
	Parse(line string) (rec Record, ok bool)
}

// NewParser returns the parser for format ("regex" or "json").
func NewParser(format string) (Parser, error) {
	switch strings.ToLower(format) {
	case "", "regex":
		return NewRegexParser(), nil
	case "json":
		return NewJSONParser(), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// lineLayout is the timestamp layout of plain-text lines.
const lineLayout = "2006-01-02 15:04:05"

var linePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s+(?:\[(.*?)\]\s+)?\[(.*?)\]\s+(.*)$`)

// RegexParser parses "YYYY-MM-DD HH:MM:SS [service] [LEVEL] message" lines.
// The service bracket is optional. Lines that do not match are shipped
// verbatim at info level.
type RegexParser struct{}

// NewRegexParser creates a RegexParser.
func NewRegexParser() *RegexParser {
	return &RegexParser{}
}

// Parse implements Parser.
func (p *RegexParser) Parse(line string) (Record, bool) {
	if strings.TrimSpace(line) == "" {
		return Record{}, false
	}

	rec := Record{Level: domain.LevelInfo, Message: line}
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return rec, true
	}

	if t, err := time.Parse(lineLayout, m[1]); err == nil {
		rec.Time = t
	}
	rec.Service = m[2]
	rec.Level = levelOrInfo(m[3])
	rec.Message = m[4]
	return rec, true
}

// JSONParser parses one JSON object per line. service, level, message and
// timestamp (RFC3339) are lifted out; every other key goes into Data.
// Lines that are not JSON objects are skipped.
type JSONParser struct{}

// NewJSONParser creates a JSONParser.
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// Parse implements Parser.
func (p *JSONParser) Parse(line string) (Record, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil || raw == nil {
		return Record{}, false
	}

	rec := Record{Level: domain.LevelInfo}
	if v, ok := raw["service"].(string); ok {
		rec.Service = v
		delete(raw, "service")
	}
	if v, ok := raw["level"].(string); ok {
		rec.Level = levelOrInfo(v)
		delete(raw, "level")
	}
	if v, ok := raw["message"].(string); ok {
		rec.Message = v
		delete(raw, "message")
	}
	if v, ok := raw["timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.Time = t
		}
		delete(raw, "timestamp")
	}
	rec.Data = raw
	return rec, true
}

func levelOrInfo(s string) domain.Level {
	if l, err := domain.ParseLevel(s); err == nil {
		return l
	}
	return domain.LevelInfo
}
