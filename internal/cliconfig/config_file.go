package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations to make the file
// formats friendly. Both TOML and YAML files map onto it.
type FileConfig struct {
	Endpoint      string `toml:"endpoint" yaml:"endpoint"`
	AccessKey     string `toml:"access_key" yaml:"access_key"`
	Secret        string `toml:"secret" yaml:"secret"`
	Service       string `toml:"service" yaml:"service"`
	File          string `toml:"file" yaml:"file"`
	Format        string `toml:"format" yaml:"format"`
	FromStart     *bool  `toml:"from_start" yaml:"from_start"`
	FlushInterval string `toml:"flush_interval" yaml:"flush_interval"`
	HTTPTimeout   string `toml:"http_timeout" yaml:"http_timeout"`
	RetryBase     string `toml:"retry_base" yaml:"retry_base"`
	BatchSize     int    `toml:"batch_size" yaml:"batch_size"`
	MaxQueueSize  int    `toml:"queue_size" yaml:"queue_size"`
	WorkerCount   int    `toml:"workers" yaml:"workers"`
	MaxRetries    int    `toml:"max_retries" yaml:"max_retries"`
	Compress      *bool  `toml:"compress" yaml:"compress"`
	StreamURL     string `toml:"stream_url" yaml:"stream_url"`
	ProjectID     int64  `toml:"project_id" yaml:"project_id"`
	Token         string `toml:"token" yaml:"token"`
	LogLevel      string `toml:"log_level" yaml:"log_level"`
	LogJSON       *bool  `toml:"log_json" yaml:"log_json"`
}

// LoadFileConfig reads and parses a config file. Files ending in .yaml or
// .yml are parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.logship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".logship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("access-key", fc.AccessKey, &cfg.AccessKey)
	s.setString("secret", fc.Secret, &cfg.Secret)
	s.setString("service", fc.Service, &cfg.Service)
	s.setString("file", fc.File, &cfg.File)
	s.setString("format", fc.Format, &cfg.Format)
	s.setString("url", fc.StreamURL, &cfg.StreamURL)
	s.setString("token", fc.Token, &cfg.Token)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("retry-base", fc.RetryBase, &cfg.RetryBase); err != nil {
		return err
	}

	s.setInt("batch-size", fc.BatchSize, &cfg.BatchSize)
	s.setInt("queue-size", fc.MaxQueueSize, &cfg.MaxQueueSize)
	s.setInt("workers", fc.WorkerCount, &cfg.WorkerCount)
	s.setInt("max-retries", fc.MaxRetries, &cfg.MaxRetries)
	s.setInt64("project-id", fc.ProjectID, &cfg.ProjectID)

	s.setBool("from-start", fc.FromStart, &cfg.FromStart)
	s.setBool("compress", fc.Compress, &cfg.Compress)
	s.setBool("log-json", fc.LogJSON, &cfg.LogJSON)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
