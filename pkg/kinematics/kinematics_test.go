package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"artrack/pkg/model"
)

func speedFix(ts int64, lat, lon float64, mps float32) model.Fix {
	return model.Fix{Latitude: lat, Longitude: lon, TimestampMs: ts}.WithSpeed(mps)
}

func TestDerive_FirstPoint(t *testing.T) {
	cur := speedFix(5000, 40.0, -3.0, 10)
	got := Derive(nil, cur, nil)

	assert.Equal(t, 0.0, got.DistanceMeters)
	assert.Equal(t, 0.0, got.AccelerationMps2)
	assert.InDelta(t, 36.0, got.SpeedKmh, 1e-9)
}

func TestDerive_AccelerationSign(t *testing.T) {
	tests := []struct {
		name     string
		from, to float32
		check    func(float64) bool
	}{
		{"Increasing", 5, 20, func(a float64) bool { return a > 0 }},
		{"Decreasing", 20, 5, func(a float64) bool { return a < 0 }},
		{"Equal", 12, 12, func(a float64) bool { return a == 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := speedFix(0, 40.0, -3.0, tt.from)
			cur := speedFix(4000, 40.001, -3.0, tt.to)
			got := Derive(&prev, cur, nil)
			if !tt.check(got.AccelerationMps2) {
				t.Errorf("unexpected acceleration %v for %v -> %v m/s", got.AccelerationMps2, tt.from, tt.to)
			}
		})
	}
}

func TestDerive_Values(t *testing.T) {
	prev := speedFix(12_000, 0, 0, 5)
	cur := speedFix(18_000, 0, 0.001, 20)
	got := Derive(&prev, cur, &model.Point{SequenceID: 3})

	assert.InDelta(t, 2.5, got.AccelerationMps2, 1e-9)
	assert.InDelta(t, 72.0, got.SpeedKmh, 1e-9)
	// 0.001 deg of longitude on the equator is ~111 m
	assert.InDelta(t, 111.3, got.DistanceMeters, 1.0)
}

func TestDerive_DegenerateElapsed(t *testing.T) {
	for _, dt := range []int64{0, -1000} {
		prev := speedFix(10_000, 40.0, -3.0, 1)
		cur := speedFix(10_000+dt, 40.0, -3.0, 30)
		got := Derive(&prev, cur, nil)
		if got.AccelerationMps2 != 0 {
			t.Errorf("elapsed %dms: acceleration = %v, want 0", dt, got.AccelerationMps2)
		}
		if math.IsNaN(got.AccelerationMps2) || math.IsInf(got.AccelerationMps2, 0) {
			t.Errorf("elapsed %dms: non-finite acceleration", dt)
		}
	}
}

func TestDerive_UnknownSpeed(t *testing.T) {
	prev := speedFix(0, 40.0, -3.0, 10)
	cur := model.Fix{Latitude: 40.0, Longitude: -3.0, TimestampMs: 2000}

	got := Derive(&prev, cur, nil)
	assert.Equal(t, 0.0, got.SpeedKmh)
	// Unknown current speed counts as 0: (0 - 10) / 2
	assert.InDelta(t, -5.0, got.AccelerationMps2, 1e-9)
}
