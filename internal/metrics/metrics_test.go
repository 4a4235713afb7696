package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GriffinCanCode/regionwatch/internal/monitor"
)

func gaugeOrCounter(t *testing.T, r *Recorder, name string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestRecorderCountsEvents(t *testing.T) {
	r := NewRecorder(0.9, nil)

	r.OnProgress(0.5)
	r.OnProgress(0.8)
	r.OnProgress(0.92)
	r.OnCompleted(0.92)
	r.OnStopped()

	tests := []struct {
		name string
		want float64
	}{
		{"regionwatch_ticks_total", 3},
		{"regionwatch_sessions_completed_total", 1},
		{"regionwatch_sessions_stopped_total", 1},
		{"regionwatch_last_similarity", 0.92},
		{"regionwatch_threshold", 0.9},
	}
	for _, tt := range tests {
		if got := gaugeOrCounter(t, r, tt.name); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRecorderStatsGauges(t *testing.T) {
	stats := monitor.Stats{CaptureFailures: 2, BestSimilarity: 0.75}
	r := NewRecorder(0.9, func() monitor.Stats { return stats })

	if got := gaugeOrCounter(t, r, "regionwatch_capture_failures"); got != 2 {
		t.Errorf("capture failures = %v, want 2", got)
	}
	stats.BestSimilarity = 0.8
	if got := gaugeOrCounter(t, r, "regionwatch_best_similarity"); got != 0.8 {
		t.Errorf("best similarity = %v, want 0.8", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder(0.9, nil)
	r.OnProgress(0.5)
	path := filepath.Join(t.TempDir(), "regionwatch.prom")

	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "regionwatch_ticks_total 1") {
		t.Errorf("textfile missing tick counter:\n%s", data)
	}
}

func TestWriteTextfileBadPath(t *testing.T) {
	r := NewRecorder(0.9, nil)
	path := filepath.Join(t.TempDir(), "missing", "regionwatch.prom")

	if err := r.WriteTextfile(path); err == nil {
		t.Error("expected error for missing directory")
	}
}
