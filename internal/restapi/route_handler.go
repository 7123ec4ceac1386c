package restapi

import (
	"net/http"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"ubmap.app/internal/geo"
	"ubmap.app/internal/routing"
	"ubmap.app/internal/transit"
	"ubmap.app/internal/utils"
)

const endpointsRequired = "start and end are required as 'lon,lat'"

// tripResponse is a FeatureCollection with a summary foreign member.
type tripResponse struct {
	Type     string             `json:"type"`
	Features []*geojson.Feature `json:"features"`
	Summary  transit.Summary    `json:"summary"`
}

// parseEndpoints reads the "start" and "end" lon,lat parameters.
func parseEndpoints(r *http.Request) (orb.Point, orb.Point, string) {
	query := r.URL.Query()
	start, end := strings.TrimSpace(query.Get("start")), strings.TrimSpace(query.Get("end"))
	if start == "" || end == "" {
		return orb.Point{}, orb.Point{}, endpointsRequired
	}

	from, err := geo.ParseCoordinate(start)
	if err != nil {
		return orb.Point{}, orb.Point{}, err.Error()
	}
	to, err := geo.ParseCoordinate(end)
	if err != nil {
		return orb.Point{}, orb.Point{}, err.Error()
	}
	for _, p := range []orb.Point{from, to} {
		if err := utils.ValidateLongitude(p.Lon()); err != nil {
			return orb.Point{}, orb.Point{}, err.Error()
		}
		if err := utils.ValidateLatitude(p.Lat()); err != nil {
			return orb.Point{}, orb.Point{}, err.Error()
		}
	}
	return from, to, ""
}

func (api *RestAPI) routeHandler(w http.ResponseWriter, r *http.Request) {
	from, to, problem := parseEndpoints(r)
	if problem != "" {
		api.badRequestResponse(w, r, problem)
		return
	}

	query := r.URL.Query()
	mode := strings.ToLower(strings.TrimSpace(query.Get("mode")))
	if mode == "" {
		mode = routing.ModeCar
	}
	if err := utils.ValidateMode(mode); err != nil {
		api.badRequestResponse(w, r, err.Error())
		return
	}

	leg := api.Router.Route(r.Context(), from, to, mode)
	opts := routing.FeatureOptions{Polyline: utils.ParseBoolParam(query, "polyline")}
	api.sendResponse(w, r, routing.FeatureCollection([]routing.Leg{leg}, opts))
}

func (api *RestAPI) routeBusHandler(w http.ResponseWriter, r *http.Request) {
	from, to, problem := parseEndpoints(r)
	if problem != "" {
		api.badRequestResponse(w, r, problem)
		return
	}

	trip := api.Composer.Compose(r.Context(), from, to)
	opts := routing.FeatureOptions{Polyline: utils.ParseBoolParam(r.URL.Query(), "polyline")}

	api.sendResponse(w, r, tripResponse{
		Type:     "FeatureCollection",
		Features: routing.FeatureCollection(trip.Legs, opts).Features,
		Summary:  trip.Summary,
	})
}
