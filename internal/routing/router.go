// Package routing turns a single from/to request into exactly one route leg,
// falling back from the requested profile to car and finally to a straight
// line when the engine cannot answer.
package routing

import (
	"context"
	"log/slog"
	"strings"

	"github.com/paulmach/orb"

	"ubmap.app/internal/geo"
	"ubmap.app/internal/osrm"
)

const (
	ModeFoot            = "foot"
	ModeCar             = "car"
	ModeBicycle         = "bicycle"
	ModeBus             = "bus"
	ModeStraightLine    = "straight-line"
	ModeFootFallbackCar = "foot-fallback-car"
	ModeBusProxy        = "bus-proxy"

	FootFallbackNote = "foot routing unavailable; used car routing as fallback"
)

// Engine answers single route queries. A miss is reported as ok == false.
type Engine interface {
	TryRoute(ctx context.Context, profile string, from, to orb.Point) (osrm.Route, bool)
}

type Router struct {
	engine Engine
	logger *slog.Logger
}

func NewRouter(engine Engine, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		engine: engine,
		logger: logger.With(slog.String("component", "router")),
	}
}

// IsFallbackMode reports whether mode is one of the labels the router and
// composer assign to degraded legs. They are never valid requests.
func IsFallbackMode(mode string) bool {
	switch mode {
	case ModeStraightLine, ModeFootFallbackCar, ModeBusProxy:
		return true
	default:
		return false
	}
}

// ProfileForMode maps a requested mode to the engine profile that serves it.
// Buses ride the car network; unknown modes pass through unchanged.
func ProfileForMode(mode string) string {
	switch mode {
	case "", ModeBus:
		return ModeCar
	default:
		return mode
	}
}

// Route never fails. The returned leg's mode records which path produced it.
// A fallback label passed as mode is treated as a plain car request.
func (r *Router) Route(ctx context.Context, from, to orb.Point, mode string) Leg {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if IsFallbackMode(mode) {
		mode = ModeCar
	}
	profile := ProfileForMode(mode)
	label := mode
	if label == "" {
		label = ModeCar
	}

	if route, ok := r.engine.TryRoute(ctx, profile, from, to); ok {
		return legFromRoute(route, label)
	}

	if profile == ModeFoot {
		if route, ok := r.engine.TryRoute(ctx, ModeCar, from, to); ok {
			r.logger.Debug("foot profile missed, using car", slog.String("mode", mode))
			leg := legFromRoute(route, ModeFootFallbackCar)
			leg.Note = FootFallbackNote
			return leg
		}
	}

	r.logger.Debug("engine unavailable, using straight line",
		slog.String("mode", mode),
		slog.String("profile", profile))
	return StraightLineLeg(from, to)
}

// StraightLineLeg is the last resort: a two point line with haversine
// distance and no duration.
func StraightLineLeg(from, to orb.Point) Leg {
	return Leg{
		Geometry:  geo.StraightLine(from, to),
		DistanceM: geo.Distance(from, to),
		Mode:      ModeStraightLine,
	}
}

func legFromRoute(route osrm.Route, mode string) Leg {
	duration := route.DurationS
	return Leg{
		Geometry:  route.Geometry,
		DistanceM: route.DistanceM,
		DurationS: &duration,
		Mode:      mode,
	}
}
