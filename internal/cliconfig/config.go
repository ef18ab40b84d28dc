package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Defaults for the logship CLI.
const (
	DefaultEndpoint  = "http://localhost:8080/api/v1/logs"
	DefaultStreamURL = "ws://localhost:8080/api/v1/logs/ws"
	DefaultService   = "service"
	DefaultFormat    = "regex"
)

// Config holds CLI configuration for logship.
type Config struct {
	// Shipping
	Endpoint  string
	AccessKey string
	Secret    string
	Service   string

	File      string
	Format    string
	FromStart bool

	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	RetryBase     time.Duration
	BatchSize     int
	MaxQueueSize  int
	WorkerCount   int
	MaxRetries    int
	Compress      bool

	// Streaming
	StreamURL string
	ProjectID int64
	Token     string

	// Logging
	LogLevel string
	LogJSON  bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Endpoint:      DefaultEndpoint,
		Service:       DefaultService,
		Format:        DefaultFormat,
		FlushInterval: time.Second,
		HTTPTimeout:   10 * time.Second,
		RetryBase:     100 * time.Millisecond,
		BatchSize:     100,
		MaxQueueSize:  4096,
		WorkerCount:   3,
		MaxRetries:    3,
		StreamURL:     DefaultStreamURL,
		LogLevel:      "info",
	}
}

// ValidateShip checks the settings used by the ship command.
func (c *Config) ValidateShip() error {
	if c.File == "" {
		return fmt.Errorf("file is required")
	}
	if c.AccessKey == "" || c.Secret == "" {
		return fmt.Errorf("access-key and secret are required")
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format != "regex" && c.Format != "json" {
		return fmt.Errorf("format must be regex or json, got %q", c.Format)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive")
	}
	if c.BatchSize <= 0 || c.MaxQueueSize <= 0 || c.WorkerCount <= 0 {
		return fmt.Errorf("batch-size, queue-size and workers must be positive")
	}
	if c.BatchSize > c.MaxQueueSize {
		return fmt.Errorf("batch-size %d exceeds queue-size %d", c.BatchSize, c.MaxQueueSize)
	}
	return nil
}

// ValidateStream checks the settings used by the stream command.
func (c *Config) ValidateStream() error {
	if c.StreamURL == "" {
		return fmt.Errorf("url is required")
	}
	if c.ProjectID <= 0 {
		return fmt.Errorf("project-id is required")
	}
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt64 sets an int64 value if positive and flag not changed.
func (s *configSetter) setInt64(flag string, value int64, dst *int64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setInt64FromString parses a string to int64 and sets the destination if valid.
func (s *configSetter) setInt64FromString(flag, value string, dst *int64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
