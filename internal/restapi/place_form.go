package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"ubmap.app/internal/logging"
	"ubmap.app/internal/utils"
	"ubmap.app/placesdb"
)

var errInvalidLonLat = errors.New("invalid lon/lat")

// placeInput carries the fields a client sent. Nil means absent.
type placeInput struct {
	Name         *string
	PlaceType    *string
	Description  *string
	ImageURL     *string
	FacebookURL  *string
	InstagramURL *string
	WebsiteURL   *string
	Phone        *string
	Lon          *float64
	Lat          *float64
}

type placePayload struct {
	Name         *string     `json:"name"`
	PlaceType    *string     `json:"place_type"`
	Type         *string     `json:"type"`
	Description  *string     `json:"description"`
	ImageURL     *string     `json:"image_url"`
	FacebookURL  *string     `json:"facebook_url"`
	InstagramURL *string     `json:"instagram_url"`
	WebsiteURL   *string     `json:"website_url"`
	Phone        *string     `json:"phone"`
	Lon          interface{} `json:"lon"`
	Lat          interface{} `json:"lat"`
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// readPlaceInput decodes a JSON body, or a form whose optional "image" file
// is uploaded to the image host.
func (api *RestAPI) readPlaceInput(w http.ResponseWriter, r *http.Request) (placeInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if isJSONRequest(r) {
		return decodePlaceJSON(r)
	}

	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return placeInput{}, fmt.Errorf("invalid form: %w", err)
	}

	in, err := placeInputFromForm(r)
	if err != nil {
		return placeInput{}, err
	}

	imageURL, err := api.uploadFormImage(r, "image")
	if err != nil {
		return placeInput{}, err
	}
	if imageURL != "" {
		in.ImageURL = &imageURL
	}
	return in, nil
}

func decodePlaceJSON(r *http.Request) (placeInput, error) {
	var payload placePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return placeInput{}, fmt.Errorf("invalid JSON body: %w", err)
	}

	in := placeInput{
		Name:         payload.Name,
		PlaceType:    payload.PlaceType,
		Description:  payload.Description,
		ImageURL:     payload.ImageURL,
		FacebookURL:  payload.FacebookURL,
		InstagramURL: payload.InstagramURL,
		WebsiteURL:   payload.WebsiteURL,
		Phone:        payload.Phone,
	}
	if in.PlaceType == nil || *in.PlaceType == "" {
		in.PlaceType = payload.Type
	}

	var err error
	if in.Lon, err = coordinateValue(payload.Lon); err != nil {
		return placeInput{}, err
	}
	if in.Lat, err = coordinateValue(payload.Lat); err != nil {
		return placeInput{}, err
	}
	return in, nil
}

// coordinateValue accepts a JSON number or a numeric string.
func coordinateValue(v interface{}) (*float64, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return &n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, errInvalidLonLat
		}
		return &f, nil
	default:
		return nil, errInvalidLonLat
	}
}

func placeInputFromForm(r *http.Request) (placeInput, error) {
	value := func(key string) *string {
		values, ok := r.PostForm[key]
		if !ok || len(values) == 0 {
			return nil
		}
		v := values[0]
		return &v
	}

	in := placeInput{
		Name:         value("name"),
		PlaceType:    value("place_type"),
		Description:  value("description"),
		FacebookURL:  value("facebook_url"),
		InstagramURL: value("instagram_url"),
		WebsiteURL:   value("website_url"),
		Phone:        value("phone"),
	}
	if in.PlaceType == nil || *in.PlaceType == "" {
		in.PlaceType = value("type")
	}

	for _, field := range []struct {
		key string
		dst **float64
	}{{"lon", &in.Lon}, {"lat", &in.Lat}} {
		raw := value(field.key)
		if raw == nil || strings.TrimSpace(*raw) == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
		if err != nil {
			return placeInput{}, errInvalidLonLat
		}
		*field.dst = &f
	}
	return in, nil
}

// uploadFormImage uploads the named multipart file and returns its URL.
// It returns "" when no file was sent or uploads are not configured.
func (api *RestAPI) uploadFormImage(r *http.Request, field string) (string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return "", nil
	}
	if api.Uploader == nil {
		logging.FromContext(r.Context()).Warn("image upload skipped, no image host configured",
			slog.String("field", field))
		return "", nil
	}

	header := r.MultipartForm.File[field][0]
	if header.Filename == "" {
		return "", nil
	}
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	defer logging.SafeCloseWithLogging(file, logging.FromContext(r.Context()), "multipart_file")

	url, err := api.Uploader.Upload(r.Context(), file, header.Filename)
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	return url, nil
}

func sanitized(s *string) *string {
	if s == nil {
		return nil
	}
	v := utils.SanitizeInput(*s)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// createParams checks the required fields and returns either params or field errors.
func (in placeInput) createParams() (placesdb.CreatePlaceParams, map[string][]string) {
	name := deref(sanitized(in.Name))
	placeType := strings.TrimSpace(deref(in.PlaceType))

	fieldErrors := utils.ValidatePlaceFields(name, placeType, in.Lon, in.Lat)
	if len(fieldErrors) > 0 {
		return placesdb.CreatePlaceParams{}, fieldErrors
	}

	return placesdb.CreatePlaceParams{
		Name:         name,
		PlaceType:    placeType,
		Description:  deref(sanitized(in.Description)),
		ImageURL:     deref(in.ImageURL),
		FacebookURL:  deref(in.FacebookURL),
		InstagramURL: deref(in.InstagramURL),
		WebsiteURL:   deref(in.WebsiteURL),
		Phone:        deref(in.Phone),
		Lon:          *in.Lon,
		Lat:          *in.Lat,
	}, nil
}

// updateParams maps the sent fields onto a partial update. Coordinates are
// applied only when both are present.
func (in placeInput) updateParams() (placesdb.UpdatePlaceParams, map[string][]string) {
	fieldErrors := make(map[string][]string)

	params := placesdb.UpdatePlaceParams{
		Name:         sanitized(in.Name),
		Description:  sanitized(in.Description),
		ImageURL:     in.ImageURL,
		FacebookURL:  in.FacebookURL,
		InstagramURL: in.InstagramURL,
		WebsiteURL:   in.WebsiteURL,
		Phone:        in.Phone,
	}

	if params.Name != nil && *params.Name == "" {
		fieldErrors["name"] = append(fieldErrors["name"], "name cannot be empty")
	}
	if in.PlaceType != nil {
		placeType := strings.TrimSpace(*in.PlaceType)
		if err := utils.ValidatePlaceType(placeType); err != nil {
			fieldErrors["place_type"] = append(fieldErrors["place_type"], err.Error())
		}
		params.PlaceType = &placeType
	}
	if in.Lon != nil && in.Lat != nil {
		if err := utils.ValidateLongitude(*in.Lon); err != nil {
			fieldErrors["lon"] = append(fieldErrors["lon"], err.Error())
		}
		if err := utils.ValidateLatitude(*in.Lat); err != nil {
			fieldErrors["lat"] = append(fieldErrors["lat"], err.Error())
		}
		params.Lon, params.Lat = in.Lon, in.Lat
	}

	if len(fieldErrors) > 0 {
		return placesdb.UpdatePlaceParams{}, fieldErrors
	}
	return params, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// placeFeature renders a place as a GeoJSON point feature.
func placeFeature(p placesdb.Place) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{p.Lon, p.Lat})
	f.Properties = geojson.Properties{
		"id":            p.ID,
		"name":          p.Name,
		"type":          p.PlaceType,
		"description":   nullable(p.Description),
		"image_url":     nullable(p.ImageURL),
		"facebook_url":  nullable(p.FacebookURL),
		"instagram_url": nullable(p.InstagramURL),
		"website_url":   nullable(p.WebsiteURL),
		"phone":         nullable(p.Phone),
		"created_at":    p.CreatedAt,
		"updated_at":    p.UpdatedAt,
	}
	return f
}

type imageResponse struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at"`
}

func imageResponses(images []placesdb.PlaceImage) []imageResponse {
	out := make([]imageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, imageResponse{
			ID:        img.ID,
			URL:       img.URL,
			Position:  img.Position,
			CreatedAt: img.CreatedAt,
		})
	}
	return out
}
