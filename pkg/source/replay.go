package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"artrack/pkg/model"
)

// replayColumns is the expected CSV layout. An empty speed means no reading.
var replayColumns = []string{"timestamp_ms", "lat", "lon", "speed_mps", "accuracy_m", "provider"}

// Replay plays back fixes recorded in a CSV file.
type Replay struct {
	path  string
	paced bool
}

// NewReplay creates a Replay for path. When paced, fixes are delivered with
// the recorded gaps between their timestamps.
func NewReplay(path string, paced bool) *Replay {
	return &Replay{path: path, paced: paced}
}

// Name implements Source.
func (r *Replay) Name() string { return "replay" }

// Run reads the file and sends every fix to sink. Malformed rows are skipped.
func (r *Replay) Run(ctx context.Context, sink Sink) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	return r.play(ctx, f, sink)
}

func (r *Replay) play(ctx context.Context, in io.Reader, sink Sink) error {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var prevTs int64
	havePrev := false
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read replay file: %w", err)
		}
		line++
		if line == 1 && isHeader(rec) {
			continue
		}

		fix, err := ParseFix(rec)
		if err != nil {
			slog.Warn("Replay: skipping malformed row", "line", line, "error", err)
			continue
		}

		if r.paced && havePrev && fix.TimestampMs > prevTs {
			gap := time.Duration(fix.TimestampMs-prevTs) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(gap):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		prevTs, havePrev = fix.TimestampMs, true
		sink(fix)
	}
}

func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), replayColumns[0])
}

// ParseFix decodes a CSV record of the form
// timestamp_ms,lat,lon,speed_mps,accuracy_m,provider.
func ParseFix(rec []string) (model.Fix, error) {
	if len(rec) < len(replayColumns) {
		return model.Fix{}, fmt.Errorf("expected %d columns, got %d", len(replayColumns), len(rec))
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return model.Fix{}, fmt.Errorf("invalid timestamp_ms: %w", err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return model.Fix{}, fmt.Errorf("invalid lat: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil {
		return model.Fix{}, fmt.Errorf("invalid lon: %w", err)
	}
	acc, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 32)
	if err != nil {
		return model.Fix{}, fmt.Errorf("invalid accuracy_m: %w", err)
	}

	if !finite(lat) || math.Abs(lat) > 90 {
		return model.Fix{}, fmt.Errorf("lat out of range: %v", lat)
	}
	if !finite(lon) || math.Abs(lon) > 180 {
		return model.Fix{}, fmt.Errorf("lon out of range: %v", lon)
	}
	if !finite(acc) || acc < 0 || acc > math.MaxFloat32 {
		return model.Fix{}, fmt.Errorf("accuracy_m out of range: %v", acc)
	}

	fix := model.Fix{
		Latitude:       lat,
		Longitude:      lon,
		AccuracyMeters: float32(acc),
		TimestampMs:    ts,
		ProviderID:     strings.TrimSpace(rec[5]),
	}
	if s := strings.TrimSpace(rec[3]); s != "" {
		speed, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return model.Fix{}, fmt.Errorf("invalid speed_mps: %w", err)
		}
		if !finite(speed) || speed < 0 || speed > math.MaxFloat32 {
			return model.Fix{}, fmt.Errorf("speed_mps out of range: %v", speed)
		}
		fix = fix.WithSpeed(float32(speed))
	}
	return fix, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
