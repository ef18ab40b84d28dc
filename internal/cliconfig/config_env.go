package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (LOGSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("endpoint", os.Getenv("LOGSHIP_ENDPOINT"), &cfg.Endpoint)
	s.setString("access-key", os.Getenv("LOGSHIP_ACCESS_KEY"), &cfg.AccessKey)
	s.setString("secret", os.Getenv("LOGSHIP_SECRET"), &cfg.Secret)
	s.setString("service", os.Getenv("LOGSHIP_SERVICE"), &cfg.Service)
	s.setString("file", os.Getenv("LOGSHIP_FILE"), &cfg.File)
	s.setString("format", os.Getenv("LOGSHIP_FORMAT"), &cfg.Format)
	s.setString("url", os.Getenv("LOGSHIP_STREAM_URL"), &cfg.StreamURL)
	s.setString("token", os.Getenv("LOGSHIP_TOKEN"), &cfg.Token)
	s.setString("log-level", os.Getenv("LOGSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("flush-interval", os.Getenv("LOGSHIP_FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("LOGSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("retry-base", os.Getenv("LOGSHIP_RETRY_BASE"), &cfg.RetryBase); err != nil {
		return err
	}

	if err := s.setIntFromString("batch-size", os.Getenv("LOGSHIP_BATCH_SIZE"), &cfg.BatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString("queue-size", os.Getenv("LOGSHIP_QUEUE_SIZE"), &cfg.MaxQueueSize); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", os.Getenv("LOGSHIP_WORKERS"), &cfg.WorkerCount); err != nil {
		return err
	}
	if err := s.setIntFromString("max-retries", os.Getenv("LOGSHIP_MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}
	if err := s.setInt64FromString("project-id", os.Getenv("LOGSHIP_PROJECT_ID"), &cfg.ProjectID); err != nil {
		return err
	}

	s.setBoolFromString("from-start", os.Getenv("LOGSHIP_FROM_START"), &cfg.FromStart)
	s.setBoolFromString("compress", os.Getenv("LOGSHIP_COMPRESS"), &cfg.Compress)
	s.setBoolFromString("log-json", os.Getenv("LOGSHIP_LOG_JSON"), &cfg.LogJSON)

	return nil
}
