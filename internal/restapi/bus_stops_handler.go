package restapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"ubmap.app/internal/gtfs"
	"ubmap.app/internal/logging"
	"ubmap.app/internal/stopsync"
	"ubmap.app/placesdb"
)

// importResult is the response body of both bus stop imports. Bbox is
// echoed as sent, or null.
type importResult struct {
	Status       string  `json:"status"`
	Source       string  `json:"source"`
	BBox         *string `json:"bbox"`
	Inserted     int     `json:"inserted"`
	Skipped      int     `json:"skipped"`
	TotalFetched int     `json:"total_fetched"`
}

func newImportResult(source string, result stopsync.Result) importResult {
	return importResult{
		Status:       "ok",
		Source:       source,
		Inserted:     result.Inserted,
		Skipped:      result.Skipped,
		TotalFetched: result.Fetched,
	}
}

func (api *RestAPI) importBusStopsOverpassHandler(w http.ResponseWriter, r *http.Request) {
	bbox := strings.TrimSpace(r.URL.Query().Get("bbox"))
	if bbox == "" && r.Method == http.MethodPost && isJSONRequest(r) {
		var payload struct {
			BBox string `json:"bbox"`
		}
		// A malformed body only means no bbox was given.
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxUploadBytes)).Decode(&payload)
		bbox = strings.TrimSpace(payload.BBox)
	}

	result := api.StopImporter.Bootstrap(r.Context(), bbox)

	response := newImportResult("overpass", result)
	if bbox != "" {
		response.BBox = &bbox
	}
	api.sendResponse(w, r, response)
}

// importBusStopsGtfsHandler imports stops from a zip sent as the body or as
// multipart field "feed". Otherwise it reads the "url" query parameter or
// JSON field, falling back to the configured feed URL.
func (api *RestAPI) importBusStopsGtfsHandler(w http.ResponseWriter, r *http.Request) {
	if api.GtfsImporter == nil {
		api.errorResponse(w, r, http.StatusServiceUnavailable, "GTFS import is not configured")
		return
	}

	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, gtfs.MaxFeedBytes)

	var (
		result stopsync.Result
		err    error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		var feed []byte
		feed, err = readMultipartFeed(r)
		if err == nil {
			result, err = api.GtfsImporter.ImportFeed(ctx, feed)
		}
	case "application/zip", "application/x-zip-compressed", "application/octet-stream":
		var feed []byte
		feed, err = io.ReadAll(r.Body)
		if err == nil {
			result, err = api.GtfsImporter.ImportFeed(ctx, feed)
		}
	default:
		source := r.URL.Query().Get("url")
		if source == "" && mediaType == "application/json" {
			var payload struct {
				URL string `json:"url"`
			}
			if decodeErr := json.NewDecoder(r.Body).Decode(&payload); decodeErr == nil {
				source = payload.URL
			}
		}
		result, err = api.GtfsImporter.ImportSource(ctx, source)
	}

	if err != nil {
		logging.LogError(logging.FromContext(ctx), "gtfs stop import failed", err,
			slog.String("content_type", mediaType))
		api.badRequestResponse(w, r, err.Error())
		return
	}
	api.sendResponse(w, r, newImportResult("gtfs", result))
}

func readMultipartFeed(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("feed")
	if err != nil {
		return nil, errors.New(`multipart field "feed" is required`)
	}
	defer logging.SafeCloseWithLogging(file, logging.FromContext(r.Context()), "gtfs_feed_upload")
	return io.ReadAll(file)
}

func (api *RestAPI) busStopCountHandler(w http.ResponseWriter, r *http.Request) {
	count, err := api.Places.Queries.CountByType(r.Context(), placesdb.PlaceTypeBusStop)
	if err != nil {
		api.errorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	api.sendResponse(w, r, map[string]int{"count": count})
}
