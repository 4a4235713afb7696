package monitor

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/GriffinCanCode/regionwatch/internal/errors"
	"github.com/GriffinCanCode/regionwatch/internal/screen"
	"github.com/GriffinCanCode/regionwatch/internal/similarity"
	"github.com/GriffinCanCode/regionwatch/internal/syncx"
	"github.com/GriffinCanCode/regionwatch/internal/trace"
)

// Source produces snapshots of a region. screen.Capturer satisfies it.
type Source interface {
	Snapshot(ctx context.Context, region screen.Region) (image.Image, error)
}

// State of a Monitor.
type State int

const (
	StateIdle State = iota
	StateConfigured
	StateMonitoring
	StateCompleted
)

var stateNames = [...]string{"idle", "configured", "monitoring", "completed"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Config is consumed as a whole by Configure. Zero Threshold and Interval
// take the package defaults.
type Config struct {
	Reference image.Image
	Region    screen.Region
	Threshold float64
	Interval  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	return c
}

// Validate checks threshold and interval ranges. Missing reference or region
// are reported by Start, not here.
func (c Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return apperrors.Newf(apperrors.ConfigInvalid, "threshold %v outside (0,1]", c.Threshold).
			WithMetadata("field", "threshold")
	}
	if c.Interval <= 0 {
		return apperrors.Newf(apperrors.ConfigInvalid, "interval %v must be positive", c.Interval).
			WithMetadata("field", "interval")
	}
	return nil
}

// Stats are point-in-time counters for the current or last session.
type Stats struct {
	Sessions        int
	Ticks           int
	CaptureFailures int
	LastSimilarity  float64
	BestSimilarity  float64
	LastTick        time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithScheduler replaces the default TickerScheduler.
func WithScheduler(s Scheduler) Option {
	return func(m *Monitor) { m.scheduler = s }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithObserver subscribes o at construction.
func WithObserver(o Observer) Option {
	return func(m *Monitor) { m.dispatcher.subscribe(o) }
}

// Monitor compares fresh snapshots of a region against a reference image on
// a fixed interval and reports when the similarity reaches the threshold.
type Monitor struct {
	source     Source
	scheduler  Scheduler
	logger     *slog.Logger
	dispatcher *dispatcher
	stats      *syncx.RWGuard[Stats]

	mu      sync.Mutex
	state   State
	cfg     Config
	session *session
	closed  bool
}

// session is one Start..Stop run.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	stop   func()
	span   *trace.Span
	log    *slog.Logger
}

// New creates an idle monitor reading snapshots from source.
func New(source Source, opts ...Option) *Monitor {
	m := &Monitor{
		source:     source,
		scheduler:  TickerScheduler{},
		logger:     slog.Default(),
		dispatcher: newDispatcher(),
		stats:      syncx.NewGuard(Stats{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers an observer for all later events.
func (m *Monitor) Subscribe(o Observer) {
	m.dispatcher.subscribe(o)
}

// Configure replaces the configuration. It is rejected while monitoring;
// callers must Stop first. A zero Threshold or Interval means the default
// (DefaultThreshold, DefaultInterval); negative values are rejected.
func (m *Monitor) Configure(cfg Config) error {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return apperrors.New(apperrors.InvalidState, "monitor closed")
	}
	if m.state == StateMonitoring {
		return apperrors.New(apperrors.InvalidState, "cannot reconfigure while monitoring; stop first")
	}
	m.cfg = cfg
	m.state = StateConfigured
	return nil
}

// Start begins monitoring. It fails with CONFIG_MISSING when the reference
// or region is absent and is a no-op when already monitoring.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return apperrors.New(apperrors.InvalidState, "monitor closed")
	}
	if m.state == StateMonitoring {
		return nil
	}
	if m.cfg.Reference == nil || m.cfg.Reference.Bounds().Empty() {
		return apperrors.New(apperrors.ConfigMissing, "reference image not set").WithMetadata("field", "reference")
	}
	if m.cfg.Region.Empty() {
		return apperrors.New(apperrors.ConfigMissing, "monitor region not set").WithMetadata("field", "region")
	}

	cfg := m.cfg
	ctx, span := trace.StartSpan(context.Background(), "monitor_session")
	span.SetAttr("region", cfg.Region.String())
	span.SetAttr("threshold", cfg.Threshold)
	ctx, cancel := context.WithCancel(ctx)

	s := &session{
		ctx:    ctx,
		cancel: cancel,
		span:   span,
		log:    trace.Logger(ctx, m.logger),
	}
	m.session = s
	m.state = StateMonitoring
	m.stats.Write(func(st *Stats) {
		*st = Stats{Sessions: st.Sessions + 1}
	})
	s.stop = m.scheduler.Every(cfg.Interval, func() { m.tick(s) })

	s.log.Info("monitor started",
		"region", cfg.Region.String(),
		"threshold_percent", similarity.Percent(cfg.Threshold),
		"interval", cfg.Interval)
	return nil
}

// Stop cancels the schedule and emits Stopped. It is a no-op unless
// monitoring and is safe to call from observers.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.endSessionLocked()
	if s == nil {
		return
	}
	m.dispatcher.enqueue(Event{Kind: EventStopped})
	s.log.Info("monitor stopped", "span", s.span)
}

// Close stops any session and waits for queued events to be delivered.
// Further calls to Configure and Start fail. Close must not be called from
// an observer.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if s := m.endSessionLocked(); s != nil {
		m.dispatcher.enqueue(Event{Kind: EventStopped})
		s.log.Info("monitor stopped on close", "span", s.span)
	}
	m.mu.Unlock()

	m.dispatcher.close()
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Config returns the stored configuration.
func (m *Monitor) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Stats returns counters for the current or last session.
func (m *Monitor) Stats() Stats {
	return m.stats.Get()
}

// endSessionLocked cancels the active session and returns it, or nil.
func (m *Monitor) endSessionLocked() *session {
	s := m.session
	if s == nil {
		return nil
	}
	m.session = nil
	m.state = StateIdle
	s.stop()
	s.cancel()
	s.span.End()
	return s
}

func (m *Monitor) tick(s *session) {
	m.mu.Lock()
	if m.session != s {
		m.mu.Unlock()
		return
	}
	cfg := m.cfg
	m.mu.Unlock()

	snap, err := m.source.Snapshot(s.ctx, cfg.Region)
	if s.ctx.Err() != nil {
		return
	}
	failed := err != nil || snap == nil
	if err != nil {
		s.log.Warn("capture failed, scoring as zero", "error", err)
		snap = nil
	} else if snap == nil {
		s.log.Warn("capture returned no image, scoring as zero")
	}
	score := similarity.Score(cfg.Reference, snap)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != s {
		return
	}

	m.stats.Write(func(st *Stats) {
		st.Ticks++
		if failed {
			st.CaptureFailures++
		}
		st.LastSimilarity = score
		if score > st.BestSimilarity {
			st.BestSimilarity = score
		}
		st.LastTick = time.Now()
	})
	m.dispatcher.enqueue(Event{Kind: EventProgress, Similarity: score})
	s.log.Debug("similarity sampled",
		"percent", similarity.Percent(score),
		"threshold_percent", similarity.Percent(cfg.Threshold))

	if score < cfg.Threshold {
		return
	}

	m.state = StateCompleted
	s.span.SetAttr("final_similarity", score)
	m.endSessionLocked()
	m.dispatcher.enqueue(Event{Kind: EventCompleted, Similarity: score})
	s.log.Info("similarity threshold reached", "final_percent", similarity.Percent(score), "span", s.span)
}
