package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"ubmap.app/internal/logging"
	"ubmap.app/internal/utils"
	"ubmap.app/placesdb"
)

// galleryField is the multipart field holding gallery files.
const galleryField = "images"

func (api *RestAPI) listImagesHandler(w http.ResponseWriter, r *http.Request) {
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

	images, err := api.Places.Queries.ListImages(ctx, id)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, imageResponses(images))
}

// addImagesHandler appends to a gallery, either from uploaded files or
// from a JSON body {"urls": [...]} of already hosted images.
func (api *RestAPI) addImagesHandler(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	var urls []string
	if isJSONRequest(r) {
		urls, err = decodeImageURLs(r)
	} else {
		urls, err = api.uploadGallery(w, r)
	}
	if err != nil {
		var status *statusError
		if errors.As(err, &status) {
			api.errorResponse(w, r, status.code, status.Error())
			return
		}
		api.badRequestResponse(w, r, err.Error())
		return
	}
	if len(urls) == 0 {
		api.badRequestResponse(w, r, "no images provided")
		return
	}

	images, err := api.Places.AddImages(ctx, id, urls)
	if errors.Is(err, placesdb.ErrNotFound) {
		api.notFoundResponse(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	logging.LogOperation(logging.FromContext(ctx), "gallery_images_added",
		slog.Int64("place_id", id),
		slog.Int("uploaded_count", len(urls)))
	api.sendStatus(w, r, http.StatusCreated, map[string]interface{}{
		"status":         "ok",
		"uploaded_count": len(urls),
		"images":         imageResponses(images),
	})
}

type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return e.message
}

func decodeImageURLs(r *http.Request) ([]string, error) {
	var payload struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	urls := make([]string, 0, len(payload.URLs))
	for _, u := range payload.URLs {
		u = strings.TrimSpace(u)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return nil, fmt.Errorf("invalid image url %q", u)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// uploadGallery sends every file of the gallery field to the image host.
// Nothing is stored unless all uploads succeed.
func (api *RestAPI) uploadGallery(w http.ResponseWriter, r *http.Request) ([]string, error) {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	files := r.MultipartForm.File[galleryField]
	if len(files) == 0 {
		return nil, nil
	}
	if api.Uploader == nil {
		return nil, &statusError{code: http.StatusServiceUnavailable, message: "image uploads are not configured"}
	}

	logger := logging.FromContext(r.Context())
	urls := make([]string, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("image upload failed: %w", err)
		}
		url, err := api.Uploader.Upload(r.Context(), file, header.Filename)
		logging.SafeCloseWithLogging(file, logger, "multipart_file")
		if err != nil {
			return nil, fmt.Errorf("image upload failed: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (api *RestAPI) deleteImageHandler(w http.ResponseWriter, r *http.Request) {
	placeID, err := utils.ParseIDParam(r, "id")
	if err != nil {
		api.notFoundResponse(w, r)
		return
	}
	imageID, err := utils.ParseIDParam(r, "image_id")
	if err != nil {
		api.notFoundResponse(w, r)
		return
	}

	err = api.Places.Queries.DeleteImage(r.Context(), placeID, imageID)
	if errors.Is(err, placesdb.ErrNotFound) {
		api.notFoundResponse(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, map[string]interface{}{"status": "deleted", "id": imageID})
}
