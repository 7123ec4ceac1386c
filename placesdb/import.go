package placesdb

import (
	"context"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureToParams maps a GeoJSON point feature onto place columns. The place
// type is read from "place_type" or "type". Non-point features are rejected.
func FeatureToParams(f *geojson.Feature) (CreatePlaceParams, bool) {
	if f == nil || f.Geometry == nil {
		return CreatePlaceParams{}, false
	}
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return CreatePlaceParams{}, false
	}

	props := f.Properties
	placeType := props.MustString("place_type", "")
	if placeType == "" {
		placeType = props.MustString("type", "")
	}

	return CreatePlaceParams{
		Name:         props.MustString("name", ""),
		PlaceType:    placeType,
		Description:  props.MustString("description", ""),
		ImageURL:     props.MustString("image_url", ""),
		FacebookURL:  props.MustString("facebook_url", ""),
		InstagramURL: props.MustString("instagram_url", ""),
		WebsiteURL:   props.MustString("website_url", ""),
		Phone:        props.MustString("phone", ""),
		Lon:          pt.Lon(),
		Lat:          pt.Lat(),
	}, true
}

// ImportFeatures inserts every point feature of fc in one transaction and
// returns how many were stored. Any failed insert rolls the whole batch back.
func (c *Client) ImportFeatures(ctx context.Context, fc *geojson.FeatureCollection) (int, error) {
	inserted := 0
	skipped := 0
	err := c.withTx(ctx, "import_geojson", func(q *Queries) error {
		for _, f := range fc.Features {
			params, ok := FeatureToParams(f)
			if !ok {
				skipped++
				continue
			}
			if _, err := q.CreatePlace(ctx, params); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.logger.Info("geojson_imported",
		slog.Int("inserted", inserted),
		slog.Int("skipped", skipped))
	return inserted, nil
}
