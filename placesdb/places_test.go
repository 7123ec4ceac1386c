package placesdb

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCreate(t *testing.T, c *Client, params CreatePlaceParams) Place {
	t.Helper()
	p, err := c.Queries.CreatePlace(context.Background(), params)
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestPlaceCRUD(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	created := mustCreate(t, client, CreatePlaceParams{
		Name:       "State Department Store",
		PlaceType:  "shop",
		WebsiteURL: "https://nomin.mn",
		Lon:        106.9155,
		Lat:        47.9185,
	})
	assert.NotZero(t, created.ID)
	assert.Equal(t, "shop", created.PlaceType)
	assert.Equal(t, "https://nomin.mn", created.WebsiteURL)
	assert.Empty(t, created.Phone)
	assert.NotEmpty(t, created.CreatedAt)

	t.Run("get", func(t *testing.T) {
		got, err := client.Queries.GetPlace(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)

		_, err = client.Queries.GetPlace(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		updated, err := client.Queries.UpdatePlace(ctx, created.ID, UpdatePlaceParams{
			Phone:       strPtr("+976 7000 0000"),
			Description: strPtr("Shopping"),
		})
		require.NoError(t, err)
		assert.Equal(t, "State Department Store", updated.Name)
		assert.Equal(t, "+976 7000 0000", updated.Phone)
		assert.Equal(t, "Shopping", updated.Description)
		assert.Equal(t, 106.9155, updated.Lon)
	})

	t.Run("coordinates need both lon and lat", func(t *testing.T) {
		updated, err := client.Queries.UpdatePlace(ctx, created.ID, UpdatePlaceParams{Lon: floatPtr(100)})
		require.NoError(t, err)
		assert.Equal(t, 106.9155, updated.Lon)

		updated, err = client.Queries.UpdatePlace(ctx, created.ID, UpdatePlaceParams{
			Lon: floatPtr(106.92), Lat: floatPtr(47.92),
		})
		require.NoError(t, err)
		assert.Equal(t, orb.Point{106.92, 47.92}, updated.Point())
	})

	t.Run("clearing an optional field stores NULL", func(t *testing.T) {
		updated, err := client.Queries.UpdatePlace(ctx, created.ID, UpdatePlaceParams{WebsiteURL: strPtr("")})
		require.NoError(t, err)
		assert.Empty(t, updated.WebsiteURL)

		var isNull bool
		require.NoError(t, client.DB.QueryRow(`SELECT website_url IS NULL FROM places WHERE id = ?`, created.ID).Scan(&isNull))
		assert.True(t, isNull)
	})

	t.Run("update missing place", func(t *testing.T) {
		_, err := client.Queries.UpdatePlace(ctx, 9999, UpdatePlaceParams{Name: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, client.DeletePlace(ctx, created.ID))
		_, err := client.Queries.GetPlace(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, client.DeletePlace(ctx, created.ID), ErrNotFound)
	})
}

func TestListPlaces(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	museum := mustCreate(t, client, CreatePlaceParams{Name: "Chinggis Khaan Museum", PlaceType: "museum", Lon: 106.92, Lat: 47.92})
	cafe := mustCreate(t, client, CreatePlaceParams{Name: "Rosewood", PlaceType: "cafe", Description: "Coffee near the MUSEUM", Lon: 106.91, Lat: 47.91})
	stop := mustCreate(t, client, CreatePlaceParams{Name: "Төв шуудан", PlaceType: PlaceTypeBusStop, Lon: 106.917, Lat: 47.918})
	far := mustCreate(t, client, CreatePlaceParams{Name: "Terelj", PlaceType: "park", Lon: 107.45, Lat: 47.98})

	ids := func(places []Place) []int64 {
		out := []int64{}
		for _, p := range places {
			out = append(out, p.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter PlaceFilter
		want   []int64
	}{
		{"no filter", PlaceFilter{}, []int64{museum.ID, cafe.ID, stop.ID, far.ID}},
		{"single type", PlaceFilter{Types: []string{"cafe"}}, []int64{cafe.ID}},
		{"several types", PlaceFilter{Types: []string{"museum", "park"}}, []int64{museum.ID, far.ID}},
		{"bbox", PlaceFilter{Bound: &orb.Bound{Min: orb.Point{106.9, 47.9}, Max: orb.Point{107.0, 48.0}}}, []int64{museum.ID, cafe.ID, stop.ID}},
		{"text matches name and description ignoring case", PlaceFilter{Query: "museum"}, []int64{museum.ID, cafe.ID}},
		{"text matches cyrillic ignoring case", PlaceFilter{Query: "ТӨВ"}, []int64{stop.ID}},
		{"combined", PlaceFilter{Types: []string{"cafe"}, Query: "coffee"}, []int64{cafe.ID}},
		{"no match", PlaceFilter{Query: "zzz"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			places, err := client.Queries.ListPlaces(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(places))
		})
	}
}

func TestCategoriesAndCounts(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	categories, err := client.Queries.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)

	mustCreate(t, client, CreatePlaceParams{Name: "b", PlaceType: PlaceTypeBusStop})
	mustCreate(t, client, CreatePlaceParams{Name: "m", PlaceType: "museum"})
	mustCreate(t, client, CreatePlaceParams{Name: "b2", PlaceType: PlaceTypeBusStop})

	categories, err = client.Queries.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bus_stop", "museum"}, categories)

	n, err := client.Queries.CountByType(ctx, PlaceTypeBusStop)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportFeatures(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	fc := geojson.NewFeatureCollection()
	a := geojson.NewFeature(orb.Point{106.9, 47.9})
	a.Properties["name"] = "Gandan"
	a.Properties["type"] = "monastery"
	b := geojson.NewFeature(orb.Point{106.95, 47.91})
	b.Properties["name"] = "Zaisan"
	b.Properties["place_type"] = "viewpoint"
	b.Properties["phone"] = "123"
	line := geojson.NewFeature(orb.LineString{{106.9, 47.9}, {107, 48}})
	fc.Append(a)
	fc.Append(b)
	fc.Append(line)

	n, err := client.ImportFeatures(ctx, fc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	places, err := client.Queries.ListPlaces(ctx, PlaceFilter{})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "monastery", places[0].PlaceType)
	assert.Equal(t, "viewpoint", places[1].PlaceType)
	assert.Equal(t, "123", places[1].Phone)
}

func TestFeatureToParams(t *testing.T) {
	_, ok := FeatureToParams(nil)
	assert.False(t, ok)

	params, ok := FeatureToParams(geojson.NewFeature(orb.Point{1, 2}))
	require.True(t, ok)
	assert.Equal(t, 1.0, params.Lon)
	assert.Equal(t, 2.0, params.Lat)
	assert.Empty(t, params.Name)
}
