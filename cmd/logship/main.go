package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/sijil-dev/logship/internal/adapters/log"
	"github.com/sijil-dev/logship/internal/cliconfig"
	"github.com/sijil-dev/logship/pkg/shipper"
)

const longHelp = `Ship log files to a collector and follow the live event stream.

  ship     tail a file, batch its lines and deliver them with retries
  stream   subscribe to a project's live events, reconnecting on drops

Configuration is read from $HOME/.logship/config.toml (or --config, TOML or
YAML), then LOGSHIP_* environment variables, then flags.`

var exampleUsage = strings.TrimSpace(`
  logship ship --file /var/log/app.log --access-key <key> --secret <secret>
  logship ship --config ./logship.yaml --format json --from-start
  logship stream --project-id 42 --token <token>
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return shipper.Version
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "logship",
		Short:         "Reliable log shipping and live streaming",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.logship/config.toml)")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "emit JSON logs instead of console output")

	root.AddCommand(newShipCmd(&cfg, &cfgPath), newStreamCmd(&cfg, &cfgPath))

	if err := root.Execute(); err != nil {
		log := newLogger(cfg).Logger()
		log.Error().Err(err).Msg("logship")
		os.Exit(1)
	}
}

// loadConfig layers the config file and LOGSHIP_* variables under any
// flags set on cmd. It returns the resolved path and the changed-flag set
// so the file can be re-applied on reload.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) (string, map[string]bool, error) {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return "", nil, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return "", nil, err
		}
	} else if cfgPath != "" {
		return "", nil, fmt.Errorf("config file %s not found", cfgPath)
	} else {
		cfgFile = ""
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return "", nil, err
	}
	return cfgFile, changed, nil
}

func newLogger(cfg cliconfig.Config) *logAdapter.ZerologAdapter {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if cfg.LogJSON {
		return logAdapter.NewJSONAdapter(os.Stderr, level)
	}
	return logAdapter.NewConsoleAdapter(os.Stderr, level)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
