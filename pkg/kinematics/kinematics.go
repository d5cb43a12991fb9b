// Package kinematics derives per-step distance, speed and acceleration from
// consecutive accepted fixes.
package kinematics

import (
	"artrack/pkg/geo"
	"artrack/pkg/model"
)

// MpsToKmh converts meters per second to kilometers per hour.
const MpsToKmh = 3.6

// Result holds the values derived for a single trajectory step.
type Result struct {
	DistanceMeters   float64
	SpeedKmh         float64
	AccelerationMps2 float64
}

// Derive computes the step from previous to current. A nil previous fix marks
// the first step of a session, which has zero distance and acceleration.
// previousPoint is accepted for sequencing context and does not affect the result.
// Unknown speeds count as 0 and a non-positive elapsed time yields zero acceleration.
func Derive(previous *model.Fix, current model.Fix, previousPoint *model.Point) Result {
	res := Result{
		SpeedKmh: float64(current.Speed()) * MpsToKmh,
	}
	if previous == nil {
		return res
	}

	res.DistanceMeters = geo.Distance(
		geo.Point{Lat: previous.Latitude, Lon: previous.Longitude},
		geo.Point{Lat: current.Latitude, Lon: current.Longitude},
	)

	elapsedMs := current.TimestampMs - previous.TimestampMs
	if elapsedMs <= 0 {
		return res
	}
	dv := float64(current.Speed()) - float64(previous.Speed())
	res.AccelerationMps2 = dv / (float64(elapsedMs) / 1000.0)
	return res
}
