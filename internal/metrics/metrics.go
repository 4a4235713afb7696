// Package metrics exposes monitor activity as Prometheus metrics written to a
// node-exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/GriffinCanCode/regionwatch/internal/errors"
	"github.com/GriffinCanCode/regionwatch/internal/monitor"
)

// Recorder observes a monitor and tracks its activity.
type Recorder struct {
	registry *prometheus.Registry

	ticks          prometheus.Counter
	completions    prometheus.Counter
	stops          prometheus.Counter
	lastSimilarity prometheus.Gauge
	threshold      prometheus.Gauge
}

// NewRecorder registers the collectors. stats, when non-nil, backs the gauges
// that mirror monitor.Stats.
func NewRecorder(threshold float64, stats func() monitor.Stats) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regionwatch_ticks_total",
			Help: "Snapshots scored against the reference",
		}),
		completions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regionwatch_sessions_completed_total",
			Help: "Sessions that reached the similarity threshold",
		}),
		stops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regionwatch_sessions_stopped_total",
			Help: "Sessions stopped before reaching the threshold",
		}),
		lastSimilarity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "regionwatch_last_similarity",
			Help: "Similarity of the most recent snapshot (0-1)",
		}),
		threshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "regionwatch_threshold",
			Help: "Similarity that ends a session",
		}),
	}
	r.threshold.Set(threshold)
	r.registry.MustRegister(r.ticks, r.completions, r.stops, r.lastSimilarity, r.threshold)

	if stats != nil {
		r.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "regionwatch_capture_failures",
				Help: "Failed captures in the current session",
			},
			func() float64 { return float64(stats().CaptureFailures) },
		))
		r.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "regionwatch_best_similarity",
				Help: "Highest similarity seen in the current session",
			},
			func() float64 { return stats().BestSimilarity },
		))
	}
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) OnProgress(similarity float64) {
	r.ticks.Inc()
	r.lastSimilarity.Set(similarity)
}

func (r *Recorder) OnCompleted(similarity float64) {
	r.completions.Inc()
	r.lastSimilarity.Set(similarity)
}

func (r *Recorder) OnStopped() {
	r.stops.Inc()
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return apperrors.Wrapf(err, apperrors.ArtifactWriteFailed, "write metrics to %s", path)
	}
	return nil
}

var _ monitor.Observer = (*Recorder)(nil)
