package model

// Fix is a single raw position sample as delivered by a location provider.
// Fixes are treated as immutable once produced.
type Fix struct {
	Latitude       float64  `json:"lat"`
	Longitude      float64  `json:"lon"`
	SpeedMps       *float32 `json:"speed_mps,omitempty"` // nil when the provider did not report speed
	AccuracyMeters float32  `json:"accuracy_m"`
	TimestampMs    int64    `json:"timestamp_ms"` // Monotonic device clock
	ProviderID     string   `json:"provider"`
}

// Speed returns the reported speed in m/s, or 0 when it is unknown.
func (f *Fix) Speed() float32 {
	if f.SpeedMps == nil {
		return 0
	}
	return *f.SpeedMps
}

// HasSpeed reports whether the provider supplied a speed.
func (f *Fix) HasSpeed() bool {
	return f.SpeedMps != nil
}

// WithSpeed returns a copy of the fix carrying the given speed.
func (f Fix) WithSpeed(mps float32) Fix {
	v := mps
	f.SpeedMps = &v
	return f
}

// Point is a derived trajectory sample. Distance and acceleration are relative
// to the previous Point of the same session and are zero for the first one.
type Point struct {
	SequenceID       uint32  `json:"sequence_id"` // 1-based, never reused within a session
	Latitude         float64 `json:"lat"`
	Longitude        float64 `json:"lon"`
	DistanceMeters   float64 `json:"distance_m"`
	SpeedKmh         float64 `json:"speed_kmh"`
	AccelerationMps2 float64 `json:"accel_mps2"`
	TimestampS       int64   `json:"timestamp_s"`
}
