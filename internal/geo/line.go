package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// metersPerDegree is the length of one degree of latitude on the EarthRadius sphere.
const metersPerDegree = EarthRadius * math.Pi / 180

// LinePosition describes where a point sits relative to a line string.
type LinePosition struct {
	// Distance is the lateral distance in meters from the point to the line.
	Distance float64
	// Fraction is the location of the closest point along the line, 0 at the
	// first vertex and 1 at the last.
	Fraction float64
}

// LocatePoint projects p onto ls using a local equirectangular projection
// centred on p. That is accurate to well under a meter at the tolerances
// used for stop matching (tens to hundreds of meters).
func LocatePoint(p orb.Point, ls orb.LineString) LinePosition {
	switch len(ls) {
	case 0:
		return LinePosition{Distance: math.Inf(1)}
	case 1:
		return LinePosition{Distance: Distance(p, ls[0])}
	}

	cosLat := math.Cos(toRadians(p.Lat()))
	project := func(q orb.Point) (float64, float64) {
		return (q.Lon() - p.Lon()) * cosLat * metersPerDegree, (q.Lat() - p.Lat()) * metersPerDegree
	}

	best := math.Inf(1)
	bestAlong := 0.0
	total := 0.0

	ax, ay := project(ls[0])
	for i := 1; i < len(ls); i++ {
		bx, by := project(ls[i])
		dx, dy := bx-ax, by-ay
		segLen := math.Hypot(dx, dy)

		t := 0.0
		if segLen > 0 {
			// p is the origin of the projection, so the closest point
			// parameter is the projection of -a onto the segment.
			t = (-ax*dx - ay*dy) / (segLen * segLen)
			t = math.Max(0, math.Min(1, t))
		}
		cx, cy := ax+t*dx, ay+t*dy
		if d := math.Hypot(cx, cy); d < best {
			best = d
			bestAlong = total + t*segLen
		}

		total += segLen
		ax, ay = bx, by
	}

	fraction := 0.0
	if total > 0 {
		fraction = bestAlong / total
	}
	return LinePosition{Distance: best, Fraction: fraction}
}

// BufferBound grows b by the given number of meters on every side. It is a
// coarse prefilter for spatial index lookups, never an exact test.
func BufferBound(b orb.Bound, meters float64) orb.Bound {
	dLat := meters / metersPerDegree
	maxAbsLat := math.Max(math.Abs(b.Min.Lat()), math.Abs(b.Max.Lat()))
	cosLat := math.Cos(toRadians(math.Min(maxAbsLat, 89)))
	dLon := meters / (metersPerDegree * cosLat)

	return orb.Bound{
		Min: orb.Point{b.Min.Lon() - dLon, b.Min.Lat() - dLat},
		Max: orb.Point{b.Max.Lon() + dLon, b.Max.Lat() + dLat},
	}
}
