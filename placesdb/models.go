package placesdb

import (
	"database/sql"
	"errors"

	"github.com/paulmach/orb"
)

// ErrNotFound is returned when a place or image does not exist.
var ErrNotFound = errors.New("not found")

// PlaceTypeBusStop is the place_type shared by every bus stop.
const PlaceTypeBusStop = "bus_stop"

// Place is a catalogued point of interest. Empty optional fields are stored as NULL.
type Place struct {
	ID           int64
	Name         string
	PlaceType    string
	Description  string
	ImageURL     string
	FacebookURL  string
	InstagramURL string
	WebsiteURL   string
	Phone        string
	Lon          float64
	Lat          float64
	CreatedAt    string
	UpdatedAt    string
}

func (p Place) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// PlaceImage is one entry in a place's gallery.
type PlaceImage struct {
	ID        int64
	PlaceID   int64
	URL       string
	Position  int
	CreatedAt string
}

// CreatePlaceParams holds the columns written by CreatePlace.
type CreatePlaceParams struct {
	Name         string
	PlaceType    string
	Description  string
	ImageURL     string
	FacebookURL  string
	InstagramURL string
	WebsiteURL   string
	Phone        string
	Lon          float64
	Lat          float64
}

// UpdatePlaceParams lists the columns to change; nil fields are left alone.
// Lon and Lat are applied only when both are set.
type UpdatePlaceParams struct {
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

// PlaceFilter narrows ListPlaces. Zero values match everything.
type PlaceFilter struct {
	Types []string
	Bound *orb.Bound
	Query string
}

// PlaceOnLine is a place near a line, located along it.
type PlaceOnLine struct {
	Place    Place
	Distance float64 // meters from the line
	Fraction float64 // 0 at the line start, 1 at its end
}

func toNullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}
