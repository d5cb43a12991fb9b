// Package probe runs startup checks before the recorder begins a session.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const checkTimeout = 5 * time.Second

// CheckFunc returns nil when the checked dependency is usable.
type CheckFunc func(ctx context.Context) error

// Probe is a single named startup check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool // A failing critical probe aborts startup
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes probes in order, bounding each by its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, 0, len(probes))
	for _, p := range probes {
		start := time.Now()
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := p.Check(checkCtx)
		cancel()

		results = append(results, Result{Probe: p, Error: err, Duration: time.Since(start)})
	}
	return results
}

// AnalyzeResults logs every result and joins the errors of failed critical probes.
func AnalyzeResults(results []Result) error {
	var critical []error

	slog.Info("Startup checks")
	for _, r := range results {
		if r.Error == nil {
			slog.Info(fmt.Sprintf("[PASS] %-16s", r.Probe.Name), "duration", r.Duration.Round(time.Millisecond))
			continue
		}
		slog.Error(fmt.Sprintf("[FAIL] %-16s", r.Probe.Name), "duration", r.Duration.Round(time.Millisecond), "error", r.Error)
		if r.Probe.Critical {
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		}
	}
	return errors.Join(critical...)
}
