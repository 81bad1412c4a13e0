package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wudi/tesskit/config"
	"github.com/wudi/tesskit/observability"
	"github.com/wudi/tesskit/tess"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep an engine configured from the config file, reloading on change",
		Long: `Initialize an engine from --config and re-apply the file whenever it
changes. The engine is only reloaded when the language data source changes;
variable edits are applied in place. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfgFile == "" {
				return errors.New("watch requires --config")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd)
		},
	}
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command) error {
	api, err := a.openAPI(a.cfg)
	if err != nil {
		return err
	}
	defer api.Close()

	changes := make(chan *config.Config, 1)
	if _, err := config.Watch(a.cfgFile, func(cfg *config.Config, err error) {
		if err != nil {
			a.logger.Warn("config reload rejected", observability.Error("error", err))
			return
		}
		select {
		case changes <- cfg:
		default:
			// Drop the stale pending change in favor of the newest one.
			select {
			case <-changes:
			default:
			}
			changes <- cfg
		}
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watching %s (epoch %d)\n", a.cfgFile, api.Epoch())

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-changes:
			if err := applyConfig(api, cfg); err != nil {
				a.logger.Warn("config apply failed", observability.Error("error", err))
				continue
			}
			a.cfg = cfg
			a.logger.Info("config applied",
				observability.String(observability.TagLanguage, cfg.Language),
				observability.Uint64(observability.TagEpoch, api.Epoch()),
				observability.Bool("initialized", api.Initialized()))
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s (epoch %d)\n", describe(api.Config()), api.Epoch())
		}
	}
}

func describe(c tess.Config) string {
	return fmt.Sprintf("language=%s variables=%d", c.Language, len(c.Variables))
}
