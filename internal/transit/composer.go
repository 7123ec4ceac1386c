// Package transit approximates public-transit trips as a walk to the
// nearest bus stop, a bus ride between stops and a walk to the destination.
package transit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/paulmach/orb"

	"ubmap.app/internal/logging"
	"ubmap.app/internal/routing"
	"ubmap.app/internal/stopsync"
	"ubmap.app/placesdb"
)

const (
	SegmentWalkToStop   = "walk-to-stop"
	SegmentBus          = "bus"
	SegmentWalkFromStop = "walk-from-stop"

	DefaultIntermediateStopMeters = 100.0

	TripNote       = "Intermediate stops are approximated from bus stops near the road route between the boarding and alighting stops."
	NoStopsMessage = "Bus stops not available in DB; showing approximated route"
)

// StopStore is the subset of the places store the composer reads.
type StopStore interface {
	CountByType(ctx context.Context, placeType string) (int, error)
	NearestByType(ctx context.Context, placeType string, p orb.Point) (placesdb.Place, error)
	PlacesNearLine(ctx context.Context, placeType string, line orb.LineString, meters float64) ([]placesdb.PlaceOnLine, error)
}

// LegRouter computes one leg and never fails.
type LegRouter interface {
	Route(ctx context.Context, from, to orb.Point, mode string) routing.Leg
}

// Bootstrapper loads bus stops when the store has none. An empty bbox
// selects its configured default.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, bbox string) stopsync.Result
}

type Config struct {
	// IntermediateStopMeters is the lateral tolerance around the bus leg.
	IntermediateStopMeters float64
}

type Composer struct {
	store     StopStore
	router    LegRouter
	bootstrap Bootstrapper
	config    Config
	logger    *slog.Logger
}

// NewComposer wires the composer. bootstrap may be nil to disable on-demand
// stop imports.
func NewComposer(store StopStore, router LegRouter, bootstrap Bootstrapper, config Config, logger *slog.Logger) *Composer {
	if config.IntermediateStopMeters <= 0 {
		config.IntermediateStopMeters = DefaultIntermediateStopMeters
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		store:     store,
		router:    router,
		bootstrap: bootstrap,
		config:    config,
		logger:    logger.With(slog.String("component", "transit_composer")),
	}
}

// Compose builds a transit trip from one coordinate to another. It never
// fails: store and enrichment problems degrade the result instead.
func (c *Composer) Compose(ctx context.Context, from, to orb.Point) Trip {
	c.ensureStops(ctx)

	startStop, startErr := c.store.NearestByType(ctx, placesdb.PlaceTypeBusStop, from)
	endStop, endErr := c.store.NearestByType(ctx, placesdb.PlaceTypeBusStop, to)
	if startErr != nil || endErr != nil {
		for _, err := range []error{startErr, endErr} {
			if err != nil && !errors.Is(err, placesdb.ErrNotFound) {
				logging.LogError(c.logger, "nearest stop lookup failed", err)
			}
		}
		return c.withoutStops(ctx, from, to)
	}

	start := stopFromPlace(startStop)
	end := stopFromPlace(endStop)

	walkTo := c.router.Route(ctx, from, start.Point(), routing.ModeFoot)
	walkTo.Segment = SegmentWalkToStop
	walkTo.ToStop = start.Name

	bus := c.router.Route(ctx, start.Point(), end.Point(), routing.ModeBus)
	bus.Segment = SegmentBus
	bus.FromStop = start.Name
	bus.ToStop = end.Name

	walkFrom := c.router.Route(ctx, end.Point(), to, routing.ModeFoot)
	walkFrom.Segment = SegmentWalkFromStop
	walkFrom.FromStop = end.Name

	return Trip{
		Legs: []routing.Leg{walkTo, bus, walkFrom},
		Summary: Summary{
			StartStop:         &start,
			EndStop:           &end,
			BusStops:          []StopRef{start.Ref(), end.Ref()},
			IntermediateStops: c.intermediateStops(ctx, bus.Geometry),
			Note:              TripNote,
		},
	}
}

// ensureStops runs the bootstrap once when the store holds no bus stops or
// cannot count them.
func (c *Composer) ensureStops(ctx context.Context) {
	count, err := c.store.CountByType(ctx, placesdb.PlaceTypeBusStop)
	if err != nil {
		logging.LogError(c.logger, "counting bus stops failed", err)
	}
	if (err == nil && count > 0) || c.bootstrap == nil {
		return
	}

	result := c.bootstrap.Bootstrap(ctx, "")
	c.logger.Info("bus stops bootstrapped on demand",
		slog.Int("inserted", result.Inserted),
		slog.Int("skipped", result.Skipped),
		slog.Int("fetched", result.Fetched))
}

// withoutStops approximates the whole trip with one car route.
func (c *Composer) withoutStops(ctx context.Context, from, to orb.Point) Trip {
	leg := c.router.Route(ctx, from, to, routing.ModeCar)
	if leg.FromEngine() {
		leg.Mode = routing.ModeBusProxy
	}

	return Trip{
		Legs: []routing.Leg{leg},
		Summary: Summary{
			BusStops:          []StopRef{},
			IntermediateStops: []Stop{},
			Message:           NoStopsMessage,
		},
	}
}

func (c *Composer) intermediateStops(ctx context.Context, line orb.LineString) []Stop {
	matches, err := c.store.PlacesNearLine(ctx, placesdb.PlaceTypeBusStop, line, c.config.IntermediateStopMeters)
	if err != nil {
		logging.LogError(c.logger, "intermediate stop lookup failed", err)
		return []Stop{}
	}

	stops := make([]Stop, 0, len(matches))
	for _, m := range matches {
		stops = append(stops, stopFromPlace(m.Place))
	}
	return stops
}
