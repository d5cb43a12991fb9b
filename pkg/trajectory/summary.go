package trajectory

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"artrack/pkg/model"
)

// Summary aggregates a trajectory for result screens and reports.
type Summary struct {
	Points              int     `json:"points"`
	TotalDistanceMeters float64 `json:"total_distance_m"`
	AverageSpeedKmh     float64 `json:"average_speed_kmh"`
	SpeedStdDevKmh      float64 `json:"speed_stddev_kmh"`
	MaxSpeedKmh         float64 `json:"max_speed_kmh"`
	MinAccelerationMps2 float64 `json:"min_accel_mps2"`
	MaxAccelerationMps2 float64 `json:"max_accel_mps2"`
	DurationS           int64   `json:"duration_s"`
}

// Summarize computes the summary of points, which must be in chronological order.
// Distance is the sum of the per-step distances; average speed is the plain mean
// of the per-point speeds.
func Summarize(points []model.Point) Summary {
	if len(points) == 0 {
		return Summary{}
	}

	dist := make([]float64, len(points))
	speed := make([]float64, len(points))
	accel := make([]float64, len(points))
	for i := range points {
		dist[i] = points[i].DistanceMeters
		speed[i] = points[i].SpeedKmh
		accel[i] = points[i].AccelerationMps2
	}

	s := Summary{
		Points:              len(points),
		TotalDistanceMeters: floats.Sum(dist),
		MaxSpeedKmh:         floats.Max(speed),
		MinAccelerationMps2: floats.Min(accel),
		MaxAccelerationMps2: floats.Max(accel),
		DurationS:           points[len(points)-1].TimestampS - points[0].TimestampS,
	}
	if len(points) > 1 {
		s.AverageSpeedKmh, s.SpeedStdDevKmh = stat.MeanStdDev(speed, nil)
	} else {
		s.AverageSpeedKmh = speed[0]
	}
	return s
}
