package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

// requireAdmin rejects requests without the configured admin secret.
func requireAdmin(api *RestAPI, finalHandler handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !api.RequestHasValidAdminSecret(r) {
			api.unauthorizedResponse(w, r)
			return
		}
		finalHandler(w, r)
	}
}

// Routes registers every endpoint on a new router.
func (api *RestAPI) Routes() *httprouter.Router {
	router := httprouter.New()
	api.SetRoutes(router)
	return router
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.NotFound = http.HandlerFunc(api.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.errorResponse(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		api.serverErrorResponse(w, r, panicError{value: v})
	}

	router.HandlerFunc(http.MethodGet, "/", api.rootHandler)
	router.HandlerFunc(http.MethodGet, "/api/health", api.healthHandler)
	router.HandlerFunc(http.MethodPost, "/admin_check", api.adminCheckHandler)

	router.HandlerFunc(http.MethodGet, "/places", api.listPlacesHandler)
	router.HandlerFunc(http.MethodPost, "/places", requireAdmin(api, api.createPlaceHandler))
	router.HandlerFunc(http.MethodGet, "/places/:id", api.placeHandler)
	router.HandlerFunc(http.MethodPut, "/places/:id", requireAdmin(api, api.updatePlaceHandler))
	router.HandlerFunc(http.MethodPatch, "/places/:id", requireAdmin(api, api.updatePlaceHandler))
	router.HandlerFunc(http.MethodDelete, "/places/:id", requireAdmin(api, api.deletePlaceHandler))
	router.HandlerFunc(http.MethodGet, "/categories", api.categoriesHandler)
	router.HandlerFunc(http.MethodPost, "/import_geojson", requireAdmin(api, api.importGeoJSONHandler))

	router.HandlerFunc(http.MethodGet, "/places/:id/images", api.listImagesHandler)
	router.HandlerFunc(http.MethodPost, "/places/:id/images", requireAdmin(api, api.addImagesHandler))
	router.HandlerFunc(http.MethodDelete, "/places/:id/images/:image_id", requireAdmin(api, api.deleteImageHandler))

	router.HandlerFunc(http.MethodGet, "/import_bus_stops_overpass", requireAdmin(api, api.importBusStopsOverpassHandler))
	router.HandlerFunc(http.MethodPost, "/import_bus_stops_overpass", requireAdmin(api, api.importBusStopsOverpassHandler))
	router.HandlerFunc(http.MethodPost, "/import_bus_stops_gtfs", requireAdmin(api, api.importBusStopsGtfsHandler))
	router.HandlerFunc(http.MethodGet, "/bus_stop_count", api.busStopCountHandler)

	router.HandlerFunc(http.MethodGet, "/route", api.routeHandler)
	router.HandlerFunc(http.MethodGet, "/route_bus", api.routeBusHandler)
}
