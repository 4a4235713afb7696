// Package orchestrator runs one watch: it captures the reference, drives the
// monitor until it completes or is interrupted, then saves artifacts and metrics.
package orchestrator

import (
	"context"
	stderrors "errors"
	"image"
	"log/slog"

	"github.com/GriffinCanCode/regionwatch/internal/artifact"
	"github.com/GriffinCanCode/regionwatch/internal/config"
	apperrors "github.com/GriffinCanCode/regionwatch/internal/errors"
	"github.com/GriffinCanCode/regionwatch/internal/metrics"
	"github.com/GriffinCanCode/regionwatch/internal/monitor"
	"github.com/GriffinCanCode/regionwatch/internal/resilience"
	"github.com/GriffinCanCode/regionwatch/internal/screen"
	"github.com/GriffinCanCode/regionwatch/internal/similarity"
	"github.com/GriffinCanCode/regionwatch/internal/trace"
)

// Outcome is how a run ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeStopped
	OutcomeTimeout
	OutcomeCancelled
)

var outcomeNames = [...]string{"completed", "stopped", "timeout", "cancelled"}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Result summarizes a run.
type Result struct {
	Outcome    Outcome
	Similarity float64
	Stats      monitor.Stats
	Reference  artifact.Artifact
	Stable     artifact.Artifact
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithScheduler overrides the monitor's scheduler.
func WithScheduler(s monitor.Scheduler) Option {
	return func(m *Manager) { m.scheduler = s }
}

// WithRetry overrides the retry policy for reference and final captures.
func WithRetry(r resilience.RetryConfig) Option {
	return func(m *Manager) { m.retry = r }
}

// Manager coordinates capture, monitoring, artifacts and metrics for one region.
type Manager struct {
	cfg       *config.Config
	region    screen.Region
	capturer  screen.Capturer
	logger    *slog.Logger
	scheduler monitor.Scheduler
	retry     resilience.RetryConfig

	monitor   *monitor.Monitor
	artifacts *artifact.Store
	metrics   *metrics.Recorder
	events    chan monitor.Event
}

// New builds a manager from a validated config. The manager owns capturer
// and closes it in Close.
func New(cfg *config.Config, capturer screen.Capturer, opts ...Option) (*Manager, error) {
	region, err := cfg.ParsedRegion()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:      cfg,
		region:   region,
		capturer: capturer,
		logger:   slog.Default(),
		retry:    resilience.DefaultRetryConfig(),
		events:   make(chan monitor.Event, EventBufferSize),
	}
	for _, opt := range opts {
		opt(m)
	}

	// metrics observe each event before Run is woken by it
	m.metrics = metrics.NewRecorder(cfg.Threshold, func() monitor.Stats { return m.monitor.Stats() })
	monOpts := []monitor.Option{
		monitor.WithLogger(m.logger),
		monitor.WithObserver(m.metrics),
		monitor.WithObserver(monitor.ObserverFuncs{
			Completed: func(s float64) { m.emit(monitor.Event{Kind: monitor.EventCompleted, Similarity: s}) },
			Stopped:   func() { m.emit(monitor.Event{Kind: monitor.EventStopped}) },
		}),
	}
	if m.scheduler != nil {
		monOpts = append(monOpts, monitor.WithScheduler(m.scheduler))
	}
	m.monitor = monitor.New(capturer, monOpts...)

	if cfg.SaveSnapshots {
		m.artifacts = artifact.NewStore(cfg.OutputDir, m.logger)
	}
	return m, nil
}

// Monitor exposes the underlying monitor.
func (m *Manager) Monitor() *monitor.Monitor { return m.monitor }

// Run captures the reference, monitors until the threshold is reached, the
// timeout elapses or ctx is cancelled, and returns what happened. Errors are
// returned only when the run could not start.
func (m *Manager) Run(ctx context.Context) (Result, error) {
	ctx, span := trace.StartSpan(ctx, "regionwatch_run")
	defer span.End()
	span.SetAttr("region", m.region.String())
	log := trace.Logger(ctx, m.logger)

	if err := m.region.ValidateSelection(m.capturer.Bounds()); err != nil {
		return Result{}, err
	}

	ref, err := m.capture(ctx)
	if err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.CaptureFailed, "capture reference")
	}

	var res Result
	if m.artifacts != nil {
		res.Reference = m.save(ctx, log, artifact.ReferenceFile, ref)
	}

	err = m.monitor.Configure(monitor.Config{
		Reference: ref,
		Region:    m.region,
		Threshold: m.cfg.Threshold,
		Interval:  m.cfg.Interval,
	})
	if err != nil {
		return Result{}, err
	}
	if err := m.monitor.Start(); err != nil {
		return Result{}, err
	}

	waitCtx := ctx
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	res.Outcome, res.Similarity = m.wait(waitCtx)
	res.Stats = m.monitor.Stats()
	span.SetAttr("outcome", res.Outcome.String())

	if res.Outcome == OutcomeCompleted && m.artifacts != nil {
		if stable, err := m.capture(ctx); err != nil {
			log.Warn("final capture failed", "error", err)
		} else {
			res.Stable = m.save(ctx, log, artifact.StableFile, stable)
			if d, err := artifact.Distance(res.Reference, res.Stable); err == nil {
				log.Info("stable snapshot fingerprint", "phash_distance", d)
			}
		}
	}

	m.writeMetrics(log)
	log.Info("watch finished",
		"outcome", res.Outcome.String(),
		"similarity_percent", similarity.Percent(res.Similarity),
		"ticks", res.Stats.Ticks,
		"capture_failures", res.Stats.CaptureFailures,
		"span", span)
	return res, nil
}

// Close stops monitoring and releases the capturer.
func (m *Manager) Close() {
	m.monitor.Close()
	m.capturer.Close()
}

// wait blocks until the monitor completes or stops, or ctx ends. Every path
// consumes the session's terminal event.
func (m *Manager) wait(ctx context.Context) (Outcome, float64) {
	var e monitor.Event
	select {
	case e = <-m.events:
	case <-ctx.Done():
		m.monitor.Stop()
		// a completion that raced the deadline still wins
		if e = <-m.events; e.Kind == monitor.EventStopped {
			if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
				return OutcomeTimeout, m.monitor.Stats().LastSimilarity
			}
			return OutcomeCancelled, m.monitor.Stats().LastSimilarity
		}
	}
	if e.Kind == monitor.EventCompleted {
		return OutcomeCompleted, e.Similarity
	}
	return OutcomeStopped, m.monitor.Stats().LastSimilarity
}

func (m *Manager) capture(ctx context.Context) (image.Image, error) {
	var img image.Image
	err := resilience.Retry(ctx, m.retry, func() error {
		var err error
		img, err = m.capturer.Snapshot(ctx, m.region)
		if err == nil && img == nil {
			err = apperrors.New(apperrors.CaptureFailed, "empty snapshot")
		}
		return err
	})
	return img, err
}

// save logs and swallows write errors; artifacts never fail a run.
func (m *Manager) save(ctx context.Context, log *slog.Logger, name string, img image.Image) artifact.Artifact {
	a, err := m.artifacts.Save(ctx, name, img)
	if err != nil {
		log.Error("failed to save snapshot", "name", name, "error", err)
	}
	return a
}

func (m *Manager) writeMetrics(log *slog.Logger) {
	if m.cfg.MetricsFile == "" {
		return
	}
	if err := m.metrics.WriteTextfile(m.cfg.MetricsFile); err != nil {
		log.Error("failed to write metrics", "error", err)
	}
}

// emit never blocks the monitor's delivery goroutine.
func (m *Manager) emit(e monitor.Event) {
	select {
	case m.events <- e:
	default:
	}
}
