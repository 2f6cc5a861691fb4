package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"feedernet/internal/buildinfo"
	"feedernet/internal/config"
	"feedernet/internal/logging"
	"feedernet/internal/planner"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("feederplan", flag.ContinueOnError)
	var (
		configPath  = fs.String("config", "", "YAML config file (default config.yml when present)")
		input       = fs.String("input", "", "directory holding the input sheets as CSV")
		out         = fs.String("out", "", "directory for route GraphML files and plan.json")
		networkName = fs.String("network", "", "network name the plan is stored under")
		workers     = fs.Int("workers", 0, "origins generated in parallel")
		logFormat   = fs.String("log-format", "", "text or json")
		logLevel    = fs.String("log-level", "", "debug, info, warn or error")
		metricsFile = fs.String("metrics-file", "", "write Prometheus metrics to this file")
		version     = fs.Bool("version", false, "print version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *version {
		fmt.Println(buildinfo.String())
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input.Dir = *input
		case "out":
			cfg.Output.Dir = *out
		case "network":
			cfg.Network = *networkName
		case "workers":
			cfg.Routes.Workers = *workers
		case "log-format":
			cfg.Log.Format = *logFormat
		case "log-level":
			cfg.Log.Level = *logLevel
		case "metrics-file":
			cfg.Output.MetricsFile = *metricsFile
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, err := logging.NewLogger(os.Stderr, cfg.Log.Format, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	slog.SetDefault(logger)
	logger.Info("starting", slog.String("version", buildinfo.Version), slog.String("network", cfg.Network))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := planner.New(ctx, *cfg, logger)
	if err != nil {
		logging.LogError(logger, "failed to init planner", err)
		return 1
	}
	defer logging.SafeCloseWithLogging(p, logger, "planner")

	if _, err := p.Run(ctx); err != nil {
		logging.LogError(logger, "planning failed", err)
		return 1
	}
	return 0
}
