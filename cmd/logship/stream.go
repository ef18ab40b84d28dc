package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sijil-dev/logship/internal/cliconfig"
	"github.com/sijil-dev/logship/pkg/stream"
)

func newStreamCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Follow a project's live events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(cmd, cfg, *cfgPath); err != nil {
				return err
			}
			if err := cfg.ValidateStream(); err != nil {
				return err
			}
			return runStream(*cfg, os.Stdout)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.StreamURL, "url", cfg.StreamURL, "websocket endpoint")
	f.Int64Var(&cfg.ProjectID, "project-id", cfg.ProjectID, "project to subscribe to")
	f.StringVar(&cfg.Token, "token", cfg.Token, "subscription token")
	return cmd
}

// closedWatcher signals when the supervisor settles in CLOSED after a
// clean server close.
type closedWatcher struct {
	done chan struct{}
}

func (w *closedWatcher) OnStateChange(ev stream.StateChangeEvent) {
	if ev.Current == stream.StateClosed && ev.Previous == stream.StateOpen {
		select {
		case w.done <- struct{}{}:
		default:
		}
	}
}

func (w *closedWatcher) OnReconnect(stream.ReconnectEvent) {}

func runStream(cfg cliconfig.Config, out io.Writer) error {
	logger := newLogger(cfg)
	zl := logger.Logger()
	r := newRenderer(out)
	watcher := &closedWatcher{done: make(chan struct{}, 1)}

	sup, err := stream.New(stream.Config{
		URL:       cfg.StreamURL,
		ProjectID: cfg.ProjectID,
		Token:     cfg.Token,
	},
		stream.WithLogger(logger),
		stream.WithNotifier(newTerminalNotifier(os.Stderr)),
		stream.WithEventHandler(watcher),
		stream.OnEvent(r.Render),
	)
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := sup.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	select {
	case <-ctx.Done():
		zl.Info().Msg("received signal, stopping...")
	case <-watcher.done:
		zl.Info().Msg("server closed the stream")
	}
	return sup.Close()
}
