package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fibernav/pkg/config"
)

var (
	watchDebounce time.Duration
	watchInit     bool
)

func init() {
	cmd := newWatchCmd()
	cmd.Flags().DurationVar(&watchDebounce, "debounce", config.DefaultDebounce, "Quiet period before reloading")
	cmd.Flags().BoolVar(&watchInit, "init", false, "Create a default configuration file if none exists")
	rootCmd.AddCommand(cmd)
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload and log the configuration whenever it changes",
		Long: `The watch command keeps running and re-reads the configuration file
after every change, logging the new settings or the reason it could not be
loaded. Stop it with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context())
		},
	}
}

func runWatch(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	if watchInit {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := config.CreateDefaultConfigFile(configPath); err != nil {
				return err
			}
		}
	}
	rt, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.log.Info("watching configuration", "path", configPath)
	return config.Watch(ctx, configPath, watchDebounce, func(cfg *config.Config, err error) {
		if err != nil {
			rt.log.Error("configuration reload failed", "path", configPath, "error", err)
			return
		}
		rt.log.Info("configuration reloaded",
			"threads", cfg.Threads.Count,
			"backgroundRecompute", cfg.ROI.BackgroundRecompute,
			"fibers", cfg.Dataset.Fibers,
			"logLevel", cfg.Logging.Level,
			"metrics", cfg.Metrics.Enabled)
	})
}
