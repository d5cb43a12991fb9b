// Package source provides position providers that feed fixes to the recorder.
package source

import (
	"context"
	"fmt"
	"time"

	"artrack/pkg/config"
	"artrack/pkg/model"
)

// Sink receives fixes from a Source, in delivery order, on a single goroutine.
type Sink func(model.Fix)

// Source produces location fixes until its context is cancelled or it runs dry.
type Source interface {
	Run(ctx context.Context, sink Sink) error
	Name() string
}

// New builds the Source selected by cfg.
func New(cfg *config.SourceConfig) (Source, error) {
	switch cfg.Provider {
	case "walker":
		w := cfg.Walker
		return NewWalker(WalkerConfig{
			StartLat:  w.StartLat,
			StartLon:  w.StartLon,
			Heading:   w.Heading,
			SpeedMps:  w.SpeedMps,
			Tick:      time.Duration(w.Tick),
			AccuracyM: float64(w.Accuracy),
		}), nil
	case "replay":
		return NewReplay(cfg.ReplayFile, cfg.ReplayPaced), nil
	default:
		return nil, fmt.Errorf("unknown source provider %q", cfg.Provider)
	}
}
