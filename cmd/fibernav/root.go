package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"fibernav/internal/logging"
	"fibernav/pkg/config"
	"fibernav/pkg/telemetry"
)

var (
	// Global flags
	configPath string
	jsonOut    bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "fibernav",
	Short: "Select fibers with boolean combinations of regions of interest",
	Long: `fibernav builds a fiber dataset, applies a layout of box and sphere
regions grouped into branches, and reports the fibers the combination
selects. Region parameters are exposed as a property tree that can be
exported and re-imported as YAML.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "fibernav.yaml", "Configuration file")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env is what every command needs after reading the configuration.
type env struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
}

func setup() (*env, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	log, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	rt := &env{cfg: cfg, log: log}
	if cfg.Metrics.Enabled {
		rt.registry = prometheus.NewRegistry()
		rt.metrics = telemetry.New(rt.registry, cfg.Metrics.Namespace)
	}
	return rt, nil
}

// reportMetrics logs every gathered sample at debug level.
func (rt *env) reportMetrics() {
	if rt.registry == nil {
		return
	}
	families, err := rt.registry.Gather()
	if err != nil {
		rt.log.Warn("cannot gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				rt.log.Debug("metric", "name", mf.GetName(), "value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				rt.log.Debug("metric", "name", mf.GetName(), "value", m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				rt.log.Debug("metric", "name", mf.GetName(),
					"count", m.GetHistogram().GetSampleCount(), "sum", m.GetHistogram().GetSampleSum())
			}
		}
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
