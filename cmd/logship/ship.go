package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sijil-dev/logship/internal/agent"
	"github.com/sijil-dev/logship/internal/cliconfig"
	"github.com/sijil-dev/logship/internal/clock"
	"github.com/sijil-dev/logship/pkg/shipper"
)

// shutdownTimeout bounds how long a stopping ship command waits for the
// queue to drain.
const shutdownTimeout = 30 * time.Second

func newShipCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ship",
		Short: "Tail a log file and ship its lines to the collector",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, changed, err := loadConfig(cmd, cfg, *cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateShip(); err != nil {
				return err
			}
			return runShip(*cfg, cfgFile, changed)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "collector endpoint URL")
	f.StringVar(&cfg.AccessKey, "access-key", cfg.AccessKey, "access key, sent as X-Api-Key")
	f.StringVar(&cfg.Secret, "secret", cfg.Secret, "secret, sent as the bearer token")
	f.StringVar(&cfg.Service, "service", cfg.Service, "default service tag")
	f.StringVar(&cfg.File, "file", cfg.File, "log file to tail")
	f.StringVar(&cfg.Format, "format", cfg.Format, "line format: regex or json")
	f.BoolVar(&cfg.FromStart, "from-start", cfg.FromStart, "ship existing content before following")
	f.DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "background flush interval")
	f.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout per attempt")
	f.DurationVar(&cfg.RetryBase, "retry-base", cfg.RetryBase, "first retry delay, doubled per attempt")
	f.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "maximum events per batch")
	f.IntVar(&cfg.MaxQueueSize, "queue-size", cfg.MaxQueueSize, "maximum queued events before dropping")
	f.IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "maximum concurrent deliveries")
	f.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "retries after the first failed attempt")
	f.BoolVar(&cfg.Compress, "compress", cfg.Compress, "gzip request bodies")
	return cmd
}

func runShip(cfg cliconfig.Config, cfgFile string, changed map[string]bool) error {
	logger := newLogger(cfg)
	zl := logger.Logger()

	logCfg := cfg
	logCfg.AccessKey = mask(logCfg.AccessKey)
	logCfg.Secret = mask(logCfg.Secret)
	logCfg.Token = mask(logCfg.Token)
	zl.Info().Interface("config", logCfg).Msg("configuration")

	client, err := shipper.New(shipper.Config{
		Endpoint:      cfg.Endpoint,
		AccessKey:     cfg.AccessKey,
		Secret:        cfg.Secret,
		Service:       cfg.Service,
		FlushInterval: cfg.FlushInterval,
		BatchSize:     cfg.BatchSize,
		MaxQueueSize:  cfg.MaxQueueSize,
		WorkerCount:   cfg.WorkerCount,
		MaxRetries:    cfg.MaxRetries,
		RetryBase:     cfg.RetryBase,
		HTTPTimeout:   cfg.HTTPTimeout,
		Compress:      cfg.Compress,
	}, shipper.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create shipper: %w", err)
	}

	parser, err := agent.NewParser(cfg.Format)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if cfgFile != "" {
		watcher := agent.NewConfigWatcher(cfgFile, func() error {
			return reloadService(client, cfgFile, changed)
		}, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				zl.Warn().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	tailer := agent.New(agent.Config{File: cfg.File, FromStart: cfg.FromStart}, parser, client, clock.Real(), logger)
	tailErr := tailer.Run(ctx)
	if tailErr == nil {
		zl.Info().Msg("received signal, stopping...")
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	if err := client.Close(closeCtx); err != nil {
		return fmt.Errorf("close shipper: %w", err)
	}
	return tailErr
}

// reloadService re-reads the config file and applies the service tag,
// keeping the file < env < flag precedence used at startup.
func reloadService(client *shipper.Client, cfgFile string, changed map[string]bool) error {
	fc, err := cliconfig.LoadFileConfig(cfgFile)
	if err != nil {
		return err
	}
	next := cliconfig.Config{Service: client.Service()}
	if err := cliconfig.ApplyFileConfig(&next, fc, changed); err != nil {
		return err
	}
	if err := cliconfig.ApplyEnvConfig(&next, changed); err != nil {
		return err
	}
	client.SetService(next.Service)
	return nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "*****"
}
