// Package screen provides platform-agnostic region capture
package screen

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"os"

	apperrors "github.com/GriffinCanCode/regionwatch/internal/errors"
	"github.com/GriffinCanCode/regionwatch/internal/resilience"
)

// Capturer takes still snapshots of screen regions.
type Capturer interface {
	Snapshot(ctx context.Context, region Region) (image.Image, error)
	Bounds() image.Rectangle
	Close()
}

// Options tunes New.
type Options struct {
	// Fallback enables the platform command backend when the display
	// backend fails.
	Fallback bool
	Breaker  resilience.Config
}

// backend implements platform-specific raw capture
type backend interface {
	name() string
	captureRaw(ctx context.Context, rect image.Rectangle) (image.Image, error)
	cleanup()
}

// baseCapturer tries each backend in order behind a shared breaker.
type baseCapturer struct {
	backends []backend
	breaker  *resilience.Breaker
	bounds   func() image.Rectangle
	tempDir  string
	logger   *slog.Logger
}

// New creates a screen capturer backed by the display API, with the
// platform command tool as fallback when enabled.
func New(opts Options) Capturer {
	tmpDir, err := os.MkdirTemp("", "regionwatch-screen-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = ""
	}

	backends := []backend{displayBackend{}}
	if opts.Fallback && tmpDir != "" {
		if b := platformBackend(tmpDir); b != nil {
			backends = append(backends, b)
		}
	}
	return newBase(backends, displayBounds, opts.Breaker, tmpDir)
}

func newBase(backends []backend, bounds func() image.Rectangle, cfg resilience.Config, tempDir string) *baseCapturer {
	if cfg.Threshold == 0 {
		cfg = resilience.CaptureConfig()
	}
	c := &baseCapturer{
		backends: backends,
		bounds:   bounds,
		tempDir:  tempDir,
		logger:   slog.Default(),
	}
	c.breaker = resilience.New(cfg).WithHook(c.breakerChanged)
	return c
}

// breakerChanged reports capture availability as the breaker moves.
func (c *baseCapturer) breakerChanged(from, to resilience.State) {
	switch to {
	case resilience.Open:
		c.logger.Warn("screen capture unavailable, failing fast",
			"backends", c.backendNames(), "from", from.String())
	case resilience.HalfOpen:
		c.logger.Info("retrying screen capture", "backends", c.backendNames())
	case resilience.Closed:
		c.logger.Info("screen capture recovered", "from", from.String())
	}
}

func (c *baseCapturer) backendNames() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.name()
	}
	return names
}

func (c *baseCapturer) Bounds() image.Rectangle {
	return c.bounds()
}

func (c *baseCapturer) Snapshot(ctx context.Context, region Region) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Cancelled, "snapshot cancelled")
	}
	if err := region.Within(c.Bounds()); err != nil {
		return nil, err
	}

	img, err := resilience.ExecuteWithResult(c.breaker, func() (image.Image, error) {
		return c.captureRaw(ctx, region.Rect())
	})
	if errors.Is(err, resilience.ErrOpen) {
		return nil, apperrors.Wrap(err, apperrors.CaptureUnavailable, "capture backends failing").
			WithMetadata("region", region.String())
	}
	return img, err
}

func (c *baseCapturer) captureRaw(ctx context.Context, rect image.Rectangle) (image.Image, error) {
	var errs []error
	for _, b := range c.backends {
		img, err := b.captureRaw(ctx, rect)
		if err == nil && img != nil {
			return img, nil
		}
		if err == nil {
			err = errors.New("empty capture")
		}
		slog.Debug("capture backend failed", "backend", b.name(), "error", err)
		errs = append(errs, err)
	}
	return nil, apperrors.Wrapf(errors.Join(errs...), apperrors.CaptureFailed, "capture %v failed", rect)
}

func (c *baseCapturer) Close() {
	for _, b := range c.backends {
		b.cleanup()
	}
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
	}
}
