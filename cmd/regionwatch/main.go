// regionwatch - waits until a screen region matches its reference snapshot
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/regionwatch/internal/config"
	apperrors "github.com/GriffinCanCode/regionwatch/internal/errors"
	"github.com/GriffinCanCode/regionwatch/internal/orchestrator"
	"github.com/GriffinCanCode/regionwatch/internal/resilience"
	"github.com/GriffinCanCode/regionwatch/internal/screen"
)

// Exit codes
const (
	exitCompleted   = 0
	exitInterrupted = 1
	exitConfig      = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	// Validate has already checked the level
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	capturer := screen.New(screen.Options{
		Fallback: cfg.CaptureFallback,
		Breaker:  resilience.CaptureConfig(),
	})
	mgr, err := orchestrator.New(cfg, capturer, orchestrator.WithLogger(logger))
	if err != nil {
		capturer.Close()
		slog.Error("invalid configuration", "error", err)
		return exitConfig
	}
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("regionwatch starting",
		"region", cfg.Region,
		"threshold", cfg.Threshold,
		"interval", cfg.Interval,
		"output", cfg.OutputDir)

	res, err := mgr.Run(ctx)
	if err != nil {
		slog.Error("watch failed", "error", err)
		return exitCodeFor(err)
	}
	if res.Outcome != orchestrator.OutcomeCompleted {
		return exitInterrupted
	}
	return exitCompleted
}

// exitCodeFor maps a Run error to an exit code. Selection and config
// problems are the user's to fix; anything else means the watch was cut short.
func exitCodeFor(err error) int {
	switch {
	case apperrors.IsCode(err, apperrors.InvalidRegion),
		apperrors.IsCode(err, apperrors.ConfigInvalid),
		apperrors.IsCode(err, apperrors.ConfigMissing):
		return exitConfig
	default:
		return exitInterrupted
	}
}

// parseArgs layers configuration: env defaults, then the YAML file, then
// flags that were set explicitly.
func parseArgs(args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("regionwatch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  = fs.String("config", "", "YAML config file")
		region      = fs.String("region", "", "region to watch as x,y,w,h")
		threshold   = fs.Float64("threshold", 0, "similarity in (0,1] that ends the watch")
		interval    = fs.Duration("interval", 0, "time between captures")
		outputDir   = fs.String("out", "", "directory for saved snapshots")
		save        = fs.Bool("save", true, "save reference and stable snapshots")
		metricsFile = fs.String("metrics-file", "", "write Prometheus metrics to this file on exit")
		timeout     = fs.Duration("timeout", 0, "give up after this long (0 waits forever)")
		logLevel    = fs.String("log-level", "", "debug, info, warn or error")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Load()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "region":
			cfg.Region = *region
		case "threshold":
			cfg.Threshold = *threshold
		case "interval":
			cfg.Interval = *interval
		case "out":
			cfg.OutputDir = *outputDir
		case "save":
			cfg.SaveSnapshots = *save
		case "metrics-file":
			cfg.MetricsFile = *metricsFile
		case "timeout":
			cfg.Timeout = *timeout
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
