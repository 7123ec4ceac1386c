package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/paulmach/orb"

	"ubmap.app/internal/routing"
)

var (
	// Detect potentially dangerous characters - more focused on injection patterns
	dangerousPattern = regexp.MustCompile(`[<>]|--|\/\*|\*\/|;.*--`)

	// Detect HTML/script tags
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

	// Place types are short lowercase slugs such as "bus_stop" or "cafe".
	placeTypePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

	// Travel modes end up in the routing engine URL path.
	modePattern = regexp.MustCompile(`^[a-z][a-z-]*$`)
)

// ValidateQuery validates search query strings
func ValidateQuery(query string) error {
	if query == "" {
		return nil
	}

	if utf8.RuneCountInString(query) > 200 {
		return errors.New("query too long (max 200 characters)")
	}

	if dangerousPattern.MatchString(query) {
		return errors.New("query contains invalid characters")
	}

	return nil
}

// ValidatePlaceType validates a place type slug
func ValidatePlaceType(placeType string) error {
	if placeType == "" {
		return errors.New("place type cannot be empty")
	}
	if len(placeType) > 50 {
		return errors.New("place type too long (max 50 characters)")
	}
	if !placeTypePattern.MatchString(placeType) {
		return errors.New("place type contains invalid characters")
	}
	return nil
}

// ValidateMode validates a travel mode such as "foot" or "bus". Labels that
// only describe fallback legs are rejected.
func ValidateMode(mode string) error {
	if len(mode) > 30 || !modePattern.MatchString(mode) || routing.IsFallbackMode(mode) {
		return errors.New("invalid mode")
	}
	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateBound checks that b is ordered and lies on the globe.
func ValidateBound(b orb.Bound) error {
	for _, p := range []orb.Point{b.Min, b.Max} {
		if err := ValidateLongitude(p.Lon()); err != nil {
			return err
		}
		if err := ValidateLatitude(p.Lat()); err != nil {
			return err
		}
	}
	if b.Min.Lon() > b.Max.Lon() || b.Min.Lat() > b.Max.Lat() {
		return errors.New("bbox minimum must not exceed maximum")
	}
	return nil
}

// SanitizeInput removes HTML tags and other potentially dangerous content
func SanitizeInput(input string) string {
	sanitized := htmlTagPattern.ReplaceAllString(input, "")
	return strings.TrimSpace(sanitized)
}

// ValidateAndSanitizeQuery validates and sanitizes a search query
func ValidateAndSanitizeQuery(query string) (string, error) {
	if err := ValidateQuery(query); err != nil {
		return "", err
	}

	return SanitizeInput(query), nil
}

// ValidatePlaceFields checks the required fields of a new place and returns
// the problems keyed by field name.
func ValidatePlaceFields(name, placeType string, lon, lat *float64) map[string][]string {
	fieldErrors := make(map[string][]string)

	if strings.TrimSpace(name) == "" {
		fieldErrors["name"] = append(fieldErrors["name"], "name is required")
	} else if utf8.RuneCountInString(name) > 200 {
		fieldErrors["name"] = append(fieldErrors["name"], "name too long (max 200 characters)")
	}

	if err := ValidatePlaceType(placeType); err != nil {
		fieldErrors["place_type"] = append(fieldErrors["place_type"], err.Error())
	}

	if lon == nil {
		fieldErrors["lon"] = append(fieldErrors["lon"], "lon is required")
	} else if err := ValidateLongitude(*lon); err != nil {
		fieldErrors["lon"] = append(fieldErrors["lon"], err.Error())
	}

	if lat == nil {
		fieldErrors["lat"] = append(fieldErrors["lat"], "lat is required")
	} else if err := ValidateLatitude(*lat); err != nil {
		fieldErrors["lat"] = append(fieldErrors["lat"], err.Error())
	}

	return fieldErrors
}
