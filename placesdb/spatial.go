package placesdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"ubmap.app/internal/geo"
)

// NearestByType returns the place of the given type closest to p by
// great-circle distance, or ErrNotFound when there is none.
func (q *Queries) NearestByType(ctx context.Context, placeType string, p orb.Point) (Place, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+placeColumns+`
		FROM places
		WHERE place_type = ?
		ORDER BY haversine(lon, lat, ?, ?), id
		LIMIT 1`, placeType, p.Lon(), p.Lat())

	place, err := scanPlace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Place{}, ErrNotFound
	}
	if err != nil {
		return Place{}, fmt.Errorf("nearest %s: %w", placeType, err)
	}
	return place, nil
}

// PlacesNearLine returns the places of the given type within meters of line,
// ordered by where they fall along it. The R*Tree narrows candidates to the
// buffered bounding box before the exact test.
func (q *Queries) PlacesNearLine(ctx context.Context, placeType string, line orb.LineString, meters float64) ([]PlaceOnLine, error) {
	if len(line) == 0 {
		return []PlaceOnLine{}, nil
	}

	b := geo.BufferBound(line.Bound(), meters)
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+placeColumns+`
		FROM places
		WHERE place_type = ?
		  AND id IN (
			SELECT id FROM places_rtree
			WHERE max_lon >= ? AND min_lon <= ? AND max_lat >= ? AND min_lat <= ?)`,
		placeType, b.Min.Lon(), b.Max.Lon(), b.Min.Lat(), b.Max.Lat())
	if err != nil {
		return nil, fmt.Errorf("places near line: %w", err)
	}

	candidates, err := collectPlaces(rows)
	if err != nil {
		return nil, err
	}

	matches := []PlaceOnLine{}
	for _, p := range candidates {
		pos := geo.LocatePoint(p.Point(), line)
		if pos.Distance <= meters {
			matches = append(matches, PlaceOnLine{Place: p, Distance: pos.Distance, Fraction: pos.Fraction})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Fraction != matches[j].Fraction {
			return matches[i].Fraction < matches[j].Fraction
		}
		return matches[i].Place.ID < matches[j].Place.ID
	})
	return matches, nil
}
