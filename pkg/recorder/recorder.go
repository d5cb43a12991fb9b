// Package recorder turns a stream of position fixes into a persisted trajectory.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"artrack/pkg/filter"
	"artrack/pkg/kinematics"
	"artrack/pkg/logging"
	"artrack/pkg/model"
	"artrack/pkg/tracker"
	"artrack/pkg/trajectory"
)

var (
	// ErrInvalidState is returned when a lifecycle operation is called in the wrong state.
	ErrInvalidState = errors.New("recorder: invalid state")
	// ErrConfiguration is returned when a session is started with an invalid configuration.
	ErrConfiguration = errors.New("recorder: invalid configuration")
)

// RestoredProviderID marks the synthetic fix rebuilt from a persisted point on Resume.
const RestoredProviderID = "restored"

// State is the lifecycle state of a Recorder.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
)

// Config holds the per-session tunables.
type Config struct {
	Capacity      uint32 `json:"capacity"`
	MinIntervalMs int64  `json:"min_interval_ms"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Capacity == 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrConfiguration)
	}
	if c.MinIntervalMs < 0 {
		return fmt.Errorf("%w: min interval must not be negative (got %d)", ErrConfiguration, c.MinIntervalMs)
	}
	return nil
}

// PointObserver is notified after each point is persisted.
type PointObserver func(model.Point)

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger used by the recorder.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// WithTracker records filter outcomes per provider.
func WithTracker(t *tracker.Tracker) Option {
	return func(r *Recorder) { r.tracker = t }
}

// WithObserver registers a callback for newly recorded points.
func WithObserver(fn PointObserver) Option {
	return func(r *Recorder) { r.observers = append(r.observers, fn) }
}

// Recorder runs the acceptance filter and kinematics over incoming fixes and
// appends the resulting points to a trajectory log. Fixes must be delivered by
// a single producer; query methods are safe for concurrent use.
type Recorder struct {
	mu           sync.RWMutex
	storage      trajectory.Storage
	state        State
	cfg          Config
	log          *trajectory.Log
	lastAccepted *model.Fix
	nextSeq      uint32
	sessionID    string

	logger    *slog.Logger
	tracker   *tracker.Tracker
	observers []PointObserver
}

// New creates an idle Recorder persisting through storage (nil for memory only).
func New(storage trajectory.Storage, opts ...Option) *Recorder {
	r := &Recorder{
		storage: storage,
		state:   StateIdle,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a fresh session, discarding any previously recorded points.
func (r *Recorder) Start(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return fmt.Errorf("%w: start while %s", ErrInvalidState, r.state)
	}

	l, err := trajectory.New(cfg.Capacity, r.storage)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := l.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear trajectory: %w", err)
	}

	r.begin(cfg, l)
	r.lastAccepted = nil
	r.nextSeq = 1

	r.logger.Info("Recorder: session started",
		"session_id", r.sessionID, "capacity", cfg.Capacity, "min_interval_ms", cfg.MinIntervalMs)
	return nil
}

// Resume begins a session that continues the trajectory already held by storage.
// The newest persisted point stands in for the last accepted fix. Its accuracy is
// unknown and taken as the worst possible, so the first live fix wins on accuracy
// even inside the minimum interval. Its timestamp keeps the point's whole-second
// resolution.
func (r *Recorder) Resume(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return fmt.Errorf("%w: resume while %s", ErrInvalidState, r.state)
	}

	l, err := trajectory.New(cfg.Capacity, r.storage)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := l.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore trajectory: %w", err)
	}

	r.begin(cfg, l)
	r.lastAccepted = nil
	r.nextSeq = 1
	if last, ok := l.Last(); ok {
		f := model.Fix{
			Latitude:       last.Latitude,
			Longitude:      last.Longitude,
			AccuracyMeters: math.MaxFloat32,
			TimestampMs:    last.TimestampS * 1000,
			ProviderID:     RestoredProviderID,
		}.WithSpeed(float32(last.SpeedKmh / kinematics.MpsToKmh))
		r.lastAccepted = &f
		r.nextSeq = last.SequenceID + 1
	}

	r.logger.Info("Recorder: session resumed",
		"session_id", r.sessionID, "points", l.Size(), "next_sequence_id", r.nextSeq)
	return nil
}

func (r *Recorder) begin(cfg Config, l *trajectory.Log) {
	r.cfg = cfg
	r.log = l
	r.sessionID = uuid.New().String()
	r.state = StateRecording
}

// OnFix processes a fix from the position source. Rejected fixes leave the
// trajectory untouched. A storage failure is returned and the fix is not
// considered accepted.
func (r *Recorder) OnFix(ctx context.Context, fix model.Fix) error {
	p, recorded, err := r.record(ctx, fix)
	if err != nil || !recorded {
		return err
	}
	for _, obs := range r.observers {
		obs(p)
	}
	return nil
}

func (r *Recorder) record(ctx context.Context, fix model.Fix) (model.Point, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return model.Point{}, false, fmt.Errorf("%w: fix received while %s", ErrInvalidState, r.state)
	}

	decision := filter.Evaluate(fix, r.lastAccepted, r.cfg.MinIntervalMs)
	if r.tracker != nil {
		r.tracker.Track(fix.ProviderID, decision, fix.HasSpeed())
	}
	if !decision.Accepted() {
		logging.Trace(r.logger, "Recorder: fix rejected", "provider", fix.ProviderID, "reason", decision.String(), "ts_ms", fix.TimestampMs)
		return model.Point{}, false, nil
	}

	var prevPoint *model.Point
	if last, ok := r.log.Last(); ok {
		prevPoint = &last
	}
	k := kinematics.Derive(r.lastAccepted, fix, prevPoint)

	p := model.Point{
		SequenceID:       r.nextSeq,
		Latitude:         fix.Latitude,
		Longitude:        fix.Longitude,
		DistanceMeters:   k.DistanceMeters,
		SpeedKmh:         k.SpeedKmh,
		AccelerationMps2: k.AccelerationMps2,
		TimestampS:       fix.TimestampMs / 1000,
	}
	if err := r.log.Append(ctx, p); err != nil {
		return model.Point{}, false, fmt.Errorf("failed to append point %d: %w", p.SequenceID, err)
	}

	accepted := fix
	r.lastAccepted = &accepted
	r.nextSeq++

	logging.Trace(r.logger, "Recorder: point recorded",
		"seq", p.SequenceID, "reason", decision.String(), "distance_m", p.DistanceMeters, "speed_kmh", p.SpeedKmh)
	return p, true, nil
}

// Stop ends the session and returns the trajectory as recorded at that moment.
func (r *Recorder) Stop(ctx context.Context) ([]model.Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return nil, fmt.Errorf("%w: stop while %s", ErrInvalidState, r.state)
	}
	r.state = StateIdle
	points := r.log.ReadAll()

	r.logger.Info("Recorder: session stopped", "session_id", r.sessionID, "points", len(points))
	return points, nil
}

// currentLog returns the log of the running or most recent session.
func (r *Recorder) currentLog() *trajectory.Log {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.log
}

// Points returns the resident points in chronological order.
func (r *Recorder) Points() []model.Point {
	l := r.currentLog()
	if l == nil {
		return []model.Point{}
	}
	return l.ReadAll()
}

// Size returns the number of resident points.
func (r *Recorder) Size() uint32 {
	l := r.currentLog()
	if l == nil {
		return 0
	}
	return l.Size()
}

// Wrapped reports whether the current log has started overwriting its oldest points.
func (r *Recorder) Wrapped() bool {
	l := r.currentLog()
	return l != nil && l.Wrapped()
}

// Summary aggregates the resident points.
func (r *Recorder) Summary() trajectory.Summary {
	return trajectory.Summarize(r.Points())
}

// State returns the lifecycle state.
func (r *Recorder) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// SessionID returns the identifier of the running or most recent session.
func (r *Recorder) SessionID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessionID
}

// Config returns the configuration of the running or most recent session.
func (r *Recorder) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}
