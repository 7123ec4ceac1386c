package restapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/paulmach/orb/geojson"

	"ubmap.app/internal/logging"
	"ubmap.app/internal/utils"
	"ubmap.app/placesdb"
)

func (api *RestAPI) listPlacesHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	bound, fieldErrors := utils.ParseBBoxParam(queryParams, "bbox", nil)
	query, err := utils.ValidateAndSanitizeQuery(queryParams.Get("q"))
	if err != nil {
		fieldErrors["q"] = append(fieldErrors["q"], err.Error())
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	places, err := api.Places.Queries.ListPlaces(r.Context(), placesdb.PlaceFilter{
		Types: utils.ParseTypesParam(queryParams),
		Bound: bound,
		Query: query,
	})
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, p := range places {
		fc.Append(placeFeature(p))
	}
	api.sendResponse(w, r, fc)
}

func (api *RestAPI) placeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseIDParam(r, "id")
	if err != nil {
		api.notFoundResponse(w, r)
		return
	}

	ctx := r.Context()
	place, err := api.Places.Queries.GetPlace(ctx, id)
	if errors.Is(err, placesdb.ErrNotFound) {
		api.notFoundResponse(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	images, err := api.Places.Queries.ListImages(ctx, id)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	feature := placeFeature(place)
	feature.Properties["images"] = imageResponses(images)
	api.sendResponse(w, r, feature)
}

func (api *RestAPI) createPlaceHandler(w http.ResponseWriter, r *http.Request) {
	in, err := api.readPlaceInput(w, r)
	if err != nil {
		api.badRequestResponse(w, r, err.Error())
		return
	}

	if in.Name == nil || in.PlaceType == nil || in.Lon == nil || in.Lat == nil {
		api.badRequestResponse(w, r, "name, place_type, lon, lat are required")
		return
	}
	params, fieldErrors := in.createParams()
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	place, err := api.Places.Queries.CreatePlace(r.Context(), params)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	logging.LogOperation(logging.FromContext(r.Context()), "place_created",
		slog.Int64("place_id", place.ID),
		slog.String("place_type", place.PlaceType))
	api.sendStatus(w, r, http.StatusCreated, placeFeature(place))
}

func (api *RestAPI) updatePlaceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseIDParam(r, "id")
	if err != nil {
		api.notFoundResponse(w, r)
		return
	}

	ctx := r.Context()
	if _, err := api.Places.Queries.GetPlace(ctx, id); err != nil {
		if errors.Is(err, placesdb.ErrNotFound) {
			api.notFoundResponse(w, r)
			return
		}
		api.serverErrorResponse(w, r, err)
		return
	}

	in, err := api.readPlaceInput(w, r)
	if err != nil {
		api.badRequestResponse(w, r, err.Error())
		return
	}
	params, fieldErrors := in.updateParams()
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	place, err := api.Places.Queries.UpdatePlace(ctx, id, params)
	if errors.Is(err, placesdb.ErrNotFound) {
		api.notFoundResponse(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, placeFeature(place))
}

func (api *RestAPI) deletePlaceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseIDParam(r, "id")
	if err != nil {
		api.notFoundResponse(w, r)
		return
	}

	err = api.Places.DeletePlace(r.Context(), id)
	if errors.Is(err, placesdb.ErrNotFound) {
		api.notFoundResponse(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	logging.LogOperation(logging.FromContext(r.Context()), "place_deleted", slog.Int64("place_id", id))
	api.sendResponse(w, r, map[string]interface{}{"status": "deleted", "id": id})
}

func (api *RestAPI) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := api.Places.Queries.Categories(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	api.sendResponse(w, r, categories)
}

func (api *RestAPI) importGeoJSONHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		api.badRequestResponse(w, r, "could not read request body")
		return
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		api.badRequestResponse(w, r, "invalid GeoJSON FeatureCollection: "+err.Error())
		return
	}

	count, err := api.Places.ImportFeatures(r.Context(), fc)
	if err != nil {
		api.badRequestResponse(w, r, err.Error())
		return
	}
	api.sendResponse(w, r, map[string]interface{}{"status": "success", "count": count})
}
