package placesdb

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestByType(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.Queries.NearestByType(ctx, PlaceTypeBusStop, orb.Point{106.91, 47.91})
	assert.ErrorIs(t, err, ErrNotFound)

	west := mustCreate(t, client, CreatePlaceParams{Name: "West", PlaceType: PlaceTypeBusStop, Lon: 106.90, Lat: 47.91})
	east := mustCreate(t, client, CreatePlaceParams{Name: "East", PlaceType: PlaceTypeBusStop, Lon: 106.94, Lat: 47.92})
	mustCreate(t, client, CreatePlaceParams{Name: "Cafe", PlaceType: "cafe", Lon: 106.9301, Lat: 47.9201})

	got, err := client.Queries.NearestByType(ctx, PlaceTypeBusStop, orb.Point{106.911, 47.91})
	require.NoError(t, err)
	assert.Equal(t, west.ID, got.ID)

	got, err = client.Queries.NearestByType(ctx, PlaceTypeBusStop, orb.Point{106.93, 47.92})
	require.NoError(t, err)
	assert.Equal(t, east.ID, got.ID, "cafe is closer but has the wrong type")
}

func TestPlacesNearLine(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	line := orb.LineString{{106.90, 47.91}, {106.94, 47.91}}

	// 0.0009 degrees of latitude is about 100 m.
	late := mustCreate(t, client, CreatePlaceParams{Name: "Late", PlaceType: PlaceTypeBusStop, Lon: 106.935, Lat: 47.9103})
	early := mustCreate(t, client, CreatePlaceParams{Name: "Early", PlaceType: PlaceTypeBusStop, Lon: 106.905, Lat: 47.9097})
	mustCreate(t, client, CreatePlaceParams{Name: "Too far", PlaceType: PlaceTypeBusStop, Lon: 106.92, Lat: 47.913})
	mustCreate(t, client, CreatePlaceParams{Name: "Wrong type", PlaceType: "cafe", Lon: 106.92, Lat: 47.91})
	mustCreate(t, client, CreatePlaceParams{Name: "Beyond the end", PlaceType: PlaceTypeBusStop, Lon: 106.95, Lat: 47.91})

	matches, err := client.Queries.PlacesNearLine(ctx, PlaceTypeBusStop, line, 100)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, early.ID, matches[0].Place.ID)
	assert.Equal(t, late.ID, matches[1].Place.ID)
	assert.InDelta(t, 0.125, matches[0].Fraction, 0.01)
	assert.InDelta(t, 0.875, matches[1].Fraction, 0.01)
	assert.InDelta(t, 33.4, matches[0].Distance, 1)

	t.Run("empty line", func(t *testing.T) {
		matches, err := client.Queries.PlacesNearLine(ctx, PlaceTypeBusStop, nil, 100)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}
