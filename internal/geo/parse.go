package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// parseDegrees parses one finite degree value. NaN and infinities are rejected.
func parseDegrees(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseCoordinate parses a "lon,lat" pair of finite numbers.
func ParseCoordinate(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, fmt.Errorf("invalid coordinate %q: expected 'lon,lat'", s)
	}

	lon, ok := parseDegrees(parts[0])
	if !ok {
		return orb.Point{}, fmt.Errorf("invalid longitude in %q", s)
	}
	lat, ok := parseDegrees(parts[1])
	if !ok {
		return orb.Point{}, fmt.Errorf("invalid latitude in %q", s)
	}

	return orb.Point{lon, lat}, nil
}

// ParseBound parses "minx,miny,maxx,maxy" (lon/lat order).
func ParseBound(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q: expected 'minx,miny,maxx,maxy'", s)
	}

	var v [4]float64
	for i, part := range parts {
		f, ok := parseDegrees(part)
		if !ok {
			return orb.Bound{}, fmt.Errorf("invalid bbox %q", s)
		}
		v[i] = f
	}

	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
