package transit

import (
	"github.com/paulmach/orb"

	"ubmap.app/internal/routing"
	"ubmap.app/placesdb"
)

// Stop is a bus stop as reported in a trip summary.
type Stop struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Coords [2]float64 `json:"coords"` // lon, lat
}

func stopFromPlace(p placesdb.Place) Stop {
	return Stop{ID: p.ID, Name: p.Name, Coords: [2]float64{p.Lon, p.Lat}}
}

func (s Stop) Point() orb.Point {
	return orb.Point(s.Coords)
}

func (s Stop) Ref() StopRef {
	return StopRef{ID: s.ID, Name: s.Name}
}

type StopRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Summary struct {
	StartStop         *Stop     `json:"start_stop,omitempty"`
	EndStop           *Stop     `json:"end_stop,omitempty"`
	BusStops          []StopRef `json:"bus_stops"`
	IntermediateStops []Stop    `json:"intermediate_stops"`
	Note              string    `json:"note,omitempty"`
	Message           string    `json:"message,omitempty"`
}

type Trip struct {
	Legs    []routing.Leg
	Summary Summary
}
