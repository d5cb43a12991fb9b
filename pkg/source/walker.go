package source

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"artrack/pkg/geo"
	"artrack/pkg/model"
)

// Walker stages.
const (
	StageWalking = "WALKING"
	StagePaused  = "PAUSED"
)

const (
	walkerProvider = "walker"

	walkTicks  = 60
	pauseTicks = 10

	// Share of fixes delivered without a speed reading.
	missingSpeedRate = 0.05
	// Maximum heading drift per tick in degrees.
	headingDrift = 10.0
)

// WalkerConfig holds the settings of the simulated walker.
type WalkerConfig struct {
	StartLat  float64
	StartLon  float64
	Heading   float64
	SpeedMps  float64
	Tick      time.Duration
	AccuracyM float64
	Seed      int64
}

// Walker simulates a subject alternating between walking on a slowly drifting
// heading and standing still.
type Walker struct {
	mu         sync.Mutex
	cfg        WalkerConfig
	rng        *rand.Rand
	pos        geo.Point
	heading    float64
	stage      string
	stageTicks int
}

// NewWalker creates a Walker at its start position. A zero Seed uses the clock.
func NewWalker(cfg WalkerConfig) *Walker {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Walker{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		pos:     geo.Point{Lat: cfg.StartLat, Lon: cfg.StartLon},
		heading: cfg.Heading,
		stage:   StageWalking,
	}
}

// Name implements Source.
func (w *Walker) Name() string { return walkerProvider }

// Run emits one fix per tick until ctx is cancelled.
func (w *Walker) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(w.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			sink(w.Next(now))
		}
	}
}

// Stage returns the current movement stage.
func (w *Walker) Stage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// Next advances the simulation by one tick and returns the fix observed at now.
func (w *Walker) Next(now time.Time) model.Fix {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.advanceStage()

	speed := 0.0
	if w.stage == StageWalking {
		// +-10% around the configured pace
		speed = w.cfg.SpeedMps * (0.9 + 0.2*w.rng.Float64())
		w.heading = math.Mod(w.heading+(w.rng.Float64()*2-1)*headingDrift+360, 360)
		w.pos = geo.DestinationPoint(w.pos, speed*w.cfg.Tick.Seconds(), w.heading)
	}

	fix := model.Fix{
		Latitude:       w.pos.Lat,
		Longitude:      w.pos.Lon,
		AccuracyMeters: float32(w.cfg.AccuracyM * (0.5 + w.rng.Float64())),
		TimestampMs:    now.UnixMilli(),
		ProviderID:     walkerProvider,
	}
	if w.rng.Float64() >= missingSpeedRate {
		fix = fix.WithSpeed(float32(speed))
	}
	return fix
}

func (w *Walker) advanceStage() {
	w.stageTicks++
	switch w.stage {
	case StageWalking:
		if w.stageTicks > walkTicks {
			w.stage = StagePaused
			w.stageTicks = 1
		}
	case StagePaused:
		if w.stageTicks > pauseTicks {
			w.stage = StageWalking
			w.stageTicks = 1
		}
	}
}
