// Package gtfs loads bus stops from a static GTFS feed into the places
// store through the same deduplicating insert used for OSM imports.
package gtfs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jamespfennell/gtfs"
	"github.com/paulmach/orb"

	"ubmap.app/internal/logging"
	"ubmap.app/internal/stopsync"
)

// ErrNoSource is returned when neither a feed nor a default URL is available.
var ErrNoSource = errors.New("no GTFS feed provided and no default feed URL configured")

// Inserter stores candidate stops, skipping duplicates.
type Inserter interface {
	Insert(ctx context.Context, candidates []stopsync.Candidate) stopsync.Result
}

type Importer struct {
	config     Config
	inserter   Inserter
	httpClient *http.Client
	logger     *slog.Logger
}

func NewImporter(config Config, inserter Inserter, logger *slog.Logger) *Importer {
	if config.DownloadTimeout <= 0 {
		config.DownloadTimeout = DefaultDownloadTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		config:     config,
		inserter:   inserter,
		httpClient: &http.Client{Timeout: config.DownloadTimeout},
		logger:     logger.With(slog.String("component", "gtfs_import")),
	}
}

// ImportFeed parses a zipped static feed and inserts its stops.
func (im *Importer) ImportFeed(ctx context.Context, feed []byte) (stopsync.Result, error) {
	start := time.Now()

	staticData, err := parseFeed(feed)
	if err != nil {
		return stopsync.Result{}, err
	}

	candidates := Candidates(staticData)
	result := im.inserter.Insert(ctx, candidates)

	logging.LogOperation(im.logger, "gtfs_stops_imported",
		slog.Int("feed_stops", len(staticData.Stops)),
		slog.Int("warnings", len(staticData.Warnings)),
		slog.Int("inserted", result.Inserted),
		slog.Int("skipped", result.Skipped),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// ImportSource reads a feed from a path or URL, falling back to the
// configured default URL when source is empty.
func (im *Importer) ImportSource(ctx context.Context, source string) (stopsync.Result, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		source = im.config.GtfsURL
	}
	if source == "" {
		return stopsync.Result{}, ErrNoSource
	}

	b, err := readFeed(ctx, im.httpClient, im.logger, source)
	if err != nil {
		return stopsync.Result{}, err
	}
	return im.ImportFeed(ctx, b)
}

// Candidates converts the boarding locations of a feed into stop candidates.
// Stations, entrances and other non-boarding nodes are left out.
func Candidates(staticData *gtfs.Static) []stopsync.Candidate {
	candidates := make([]stopsync.Candidate, 0, len(staticData.Stops))
	for _, s := range staticData.Stops {
		if int(s.Type) != 0 {
			continue
		}

		c := stopsync.Candidate{Name: s.Name}
		if s.Latitude != nil && s.Longitude != nil {
			c.Point = orb.Point{*s.Longitude, *s.Latitude}
			c.HasCoord = true
		}
		candidates = append(candidates, c)
	}
	return candidates
}
