// Package stopsync imports bus stops into the places store, skipping
// candidates that duplicate an existing stop.
package stopsync

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"ubmap.app/internal/geo"
	"ubmap.app/internal/logging"
	"ubmap.app/internal/overpass"
	"ubmap.app/placesdb"
)

// DefaultDedupMeters is the separation under which two stops with the same
// name are considered the same stop.
const DefaultDedupMeters = 20.0

// Candidate is a stop proposed for insertion by any source.
type Candidate struct {
	Name     string
	Point    orb.Point
	HasCoord bool
}

type Result struct {
	Inserted int
	Skipped  int
	Fetched  int
}

// Store is the subset of the places store the importer needs.
type Store interface {
	NearestByType(ctx context.Context, placeType string, p orb.Point) (placesdb.Place, error)
	CreatePlace(ctx context.Context, arg placesdb.CreatePlaceParams) (placesdb.Place, error)
}

// Fetcher lists bus stops reported by a mirror inside a bbox.
type Fetcher interface {
	FetchBusStops(ctx context.Context, bbox string) []overpass.Candidate
}

type Config struct {
	DedupMeters float64
	// DefaultBBox is used when Bootstrap is called without a bbox.
	DefaultBBox string
}

type Importer struct {
	store   Store
	fetcher Fetcher
	config  Config
	logger  *slog.Logger
}

func NewImporter(store Store, fetcher Fetcher, config Config, logger *slog.Logger) *Importer {
	if config.DedupMeters <= 0 {
		config.DedupMeters = DefaultDedupMeters
	}
	if config.DefaultBBox == "" {
		config.DefaultBBox = overpass.DefaultBBox
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:   store,
		fetcher: fetcher,
		config:  config,
		logger:  logger.With(slog.String("component", "stopsync")),
	}
}

// Bootstrap fetches stops from the mirror and inserts the new ones. It
// never fails; an unreachable mirror produces an empty result.
func (im *Importer) Bootstrap(ctx context.Context, bbox string) Result {
	start := time.Now()
	if strings.TrimSpace(bbox) == "" {
		bbox = im.config.DefaultBBox
	}

	var fetched []overpass.Candidate
	if im.fetcher != nil {
		fetched = im.fetcher.FetchBusStops(ctx, bbox)
	}

	candidates := make([]Candidate, 0, len(fetched))
	for _, f := range fetched {
		candidates = append(candidates, Candidate{Name: f.Name, Point: f.Point, HasCoord: f.HasCoord})
	}

	result := im.Insert(ctx, candidates)
	logging.LogOperation(im.logger, "bus_stops_bootstrapped",
		slog.String("bbox", bbox),
		slog.Int("fetched", result.Fetched),
		slog.Int("inserted", result.Inserted),
		slog.Int("skipped", result.Skipped),
		slog.Duration("duration", time.Since(start)))
	return result
}

// Insert stores each candidate that is not a duplicate. Rows are written
// one at a time; a failed write counts as skipped.
func (im *Importer) Insert(ctx context.Context, candidates []Candidate) Result {
	result := Result{Fetched: len(candidates)}

	for _, c := range candidates {
		if !c.HasCoord {
			result.Skipped++
			continue
		}

		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = overpass.DefaultStopName
		}

		if im.isDuplicate(ctx, name, c.Point) {
			result.Skipped++
			continue
		}

		_, err := im.store.CreatePlace(ctx, placesdb.CreatePlaceParams{
			Name:      name,
			PlaceType: placesdb.PlaceTypeBusStop,
			Lon:       c.Point.Lon(),
			Lat:       c.Point.Lat(),
		})
		if err != nil {
			logging.LogError(im.logger, "failed to insert bus stop", err, slog.String("name", name))
			result.Skipped++
			continue
		}
		result.Inserted++
	}

	return result
}

// isDuplicate compares against the nearest existing stop only. A failed
// lookup is treated as no duplicate.
func (im *Importer) isDuplicate(ctx context.Context, name string, p orb.Point) bool {
	nearest, err := im.store.NearestByType(ctx, placesdb.PlaceTypeBusStop, p)
	if err != nil {
		if !errors.Is(err, placesdb.ErrNotFound) {
			logging.LogError(im.logger, "nearest stop lookup failed", err)
		}
		return false
	}

	return SameName(nearest.Name, name) && geo.Distance(nearest.Point(), p) <= im.config.DedupMeters
}

// SameName compares stop names ignoring surrounding blanks and case.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
