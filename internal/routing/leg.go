package routing

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"

	"ubmap.app/internal/geo"
)

// Leg is one computed segment of a trip. DurationS is nil unless the
// routing engine produced the geometry.
type Leg struct {
	Geometry  orb.LineString
	DistanceM float64
	DurationS *float64
	Mode      string
	Segment   string
	Note      string
	FromStop  string
	ToStop    string
}

// FromEngine reports whether the leg geometry came from the routing engine.
func (l Leg) FromEngine() bool {
	return l.Mode != ModeStraightLine
}

// FeatureOptions controls optional leg feature properties.
type FeatureOptions struct {
	// Polyline adds the geometry as a Google encoded polyline.
	Polyline bool
}

// Feature renders the leg as a GeoJSON LineString feature. Distance and
// duration are rounded to one decimal; absent fields are omitted.
func (l Leg) Feature(opts FeatureOptions) *geojson.Feature {
	f := geojson.NewFeature(l.Geometry)
	f.Properties["distance_m"] = geo.Round1(l.DistanceM)
	f.Properties["mode"] = l.Mode
	if l.DurationS != nil {
		f.Properties["duration_s"] = geo.Round1(*l.DurationS)
	}

	optional := map[string]string{
		"segment":   l.Segment,
		"note":      l.Note,
		"from_stop": l.FromStop,
		"to_stop":   l.ToStop,
	}
	for key, value := range optional {
		if value != "" {
			f.Properties[key] = value
		}
	}

	if opts.Polyline {
		f.Properties["polyline"] = EncodePolyline(l.Geometry)
	}
	return f
}

// EncodePolyline encodes ls in the Google polyline format, which orders
// each pair as lat,lon.
func EncodePolyline(ls orb.LineString) string {
	coords := make([][]float64, 0, len(ls))
	for _, p := range ls {
		coords = append(coords, []float64{p.Lat(), p.Lon()})
	}
	return string(polyline.EncodeCoords(coords))
}

// FeatureCollection renders legs in order.
func FeatureCollection(legs []Leg, opts FeatureOptions) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, leg := range legs {
		fc.Append(leg.Feature(opts))
	}
	return fc
}
