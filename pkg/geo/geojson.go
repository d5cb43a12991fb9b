package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"artrack/pkg/model"
)

// TrajectoryCollection renders an ordered trajectory as a GeoJSON feature collection.
// The first feature is the path as a LineString (omitted for fewer than two points),
// followed by one Point feature per sample carrying its derived values. Every
// sample after the first also carries the heading of the step that reached it.
func TrajectoryCollection(points []model.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(points) >= 2 {
		line := make(orb.LineString, 0, len(points))
		for i := range points {
			line = append(line, orb.Point{points[i].Longitude, points[i].Latitude})
		}
		path := geojson.NewFeature(line)
		path.Properties["kind"] = "path"
		path.Properties["first_sequence_id"] = points[0].SequenceID
		path.Properties["last_sequence_id"] = points[len(points)-1].SequenceID
		fc.Append(path)
	}

	for i := range points {
		p := &points[i]
		f := geojson.NewFeature(orb.Point{p.Longitude, p.Latitude})
		f.Properties["kind"] = "sample"
		f.Properties["sequence_id"] = p.SequenceID
		f.Properties["distance_m"] = p.DistanceMeters
		f.Properties["speed_kmh"] = p.SpeedKmh
		f.Properties["accel_mps2"] = p.AccelerationMps2
		f.Properties["timestamp_s"] = p.TimestampS
		if i > 0 {
			prev := &points[i-1]
			f.Properties["heading_deg"] = Bearing(
				Point{Lat: prev.Latitude, Lon: prev.Longitude},
				Point{Lat: p.Latitude, Lon: p.Longitude},
			)
		}
		fc.Append(f)
	}
	return fc
}
