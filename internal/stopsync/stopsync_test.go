package stopsync

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubmap.app/internal/appconf"
	"ubmap.app/internal/overpass"
	"ubmap.app/placesdb"
)

func newStore(t *testing.T) *placesdb.Client {
	t.Helper()
	client, err := placesdb.NewClient(placesdb.NewConfig(":memory:", appconf.Test, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type fakeFetcher struct {
	candidates []overpass.Candidate
	gotBBox    string
}

func (f *fakeFetcher) FetchBusStops(_ context.Context, bbox string) []overpass.Candidate {
	f.gotBBox = bbox
	return f.candidates
}

// failingStore refuses every write.
type failingStore struct {
	Store
}

func (failingStore) NearestByType(context.Context, string, orb.Point) (placesdb.Place, error) {
	return placesdb.Place{}, placesdb.ErrNotFound
}

func (failingStore) CreatePlace(context.Context, placesdb.CreatePlaceParams) (placesdb.Place, error) {
	return placesdb.Place{}, assert.AnError
}

func TestInsertDedup(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := store.Queries.CreatePlace(ctx, placesdb.CreatePlaceParams{
		Name: "Central", PlaceType: placesdb.PlaceTypeBusStop, Lon: 106.91, Lat: 47.91,
	})
	require.NoError(t, err)

	im := NewImporter(store.Queries, nil, Config{}, nil)

	// 0.0001 degrees of latitude is about 11 m.
	result := im.Insert(ctx, []Candidate{
		{Name: "central ", Point: orb.Point{106.91, 47.9101}, HasCoord: true},
		{Name: "Other", Point: orb.Point{106.91, 47.9101}, HasCoord: true},
		{Name: "No position"},
	})

	assert.Equal(t, Result{Inserted: 1, Skipped: 2, Fetched: 3}, result)

	n, err := store.Queries.CountByType(ctx, placesdb.PlaceTypeBusStop)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInsertSameNameFarAway(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	im := NewImporter(store.Queries, nil, Config{}, nil)

	result := im.Insert(ctx, []Candidate{
		{Name: "Central", Point: orb.Point{106.91, 47.91}, HasCoord: true},
		// About 33 m north: same name but beyond the threshold.
		{Name: "Central", Point: orb.Point{106.91, 47.9103}, HasCoord: true},
	})
	assert.Equal(t, 2, result.Inserted)

	t.Run("threshold is configurable", func(t *testing.T) {
		store := newStore(t)
		im := NewImporter(store.Queries, nil, Config{DedupMeters: 50}, nil)
		result := im.Insert(ctx, []Candidate{
			{Name: "Central", Point: orb.Point{106.91, 47.91}, HasCoord: true},
			{Name: "Central", Point: orb.Point{106.91, 47.9103}, HasCoord: true},
		})
		assert.Equal(t, Result{Inserted: 1, Skipped: 1, Fetched: 2}, result)
	})
}

func TestInsertFailuresCountAsSkipped(t *testing.T) {
	im := NewImporter(failingStore{}, nil, Config{}, nil)
	result := im.Insert(context.Background(), []Candidate{
		{Name: "A", Point: orb.Point{1, 1}, HasCoord: true},
	})
	assert.Equal(t, Result{Inserted: 0, Skipped: 1, Fetched: 1}, result)
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("uses default bbox and stores fetched stops", func(t *testing.T) {
		store := newStore(t)
		fetcher := &fakeFetcher{candidates: []overpass.Candidate{
			{Name: "Central", Point: orb.Point{106.91, 47.91}, HasCoord: true},
			{Name: "Market", Point: orb.Point{106.93, 47.92}, HasCoord: true},
			{Name: "Broken"},
		}}
		im := NewImporter(store.Queries, fetcher, Config{}, nil)

		result := im.Bootstrap(ctx, "")
		assert.Equal(t, overpass.DefaultBBox, fetcher.gotBBox)
		assert.Equal(t, Result{Inserted: 2, Skipped: 1, Fetched: 3}, result)

		again := im.Bootstrap(ctx, "47.0,106.0,48.0,107.0")
		assert.Equal(t, "47.0,106.0,48.0,107.0", fetcher.gotBBox)
		assert.Equal(t, Result{Inserted: 0, Skipped: 3, Fetched: 3}, again)
	})

	t.Run("empty mirror result", func(t *testing.T) {
		store := newStore(t)
		im := NewImporter(store.Queries, &fakeFetcher{}, Config{}, nil)
		assert.Equal(t, Result{}, im.Bootstrap(ctx, ""))
	})

	t.Run("nil fetcher", func(t *testing.T) {
		store := newStore(t)
		im := NewImporter(store.Queries, nil, Config{}, nil)
		assert.Equal(t, Result{}, im.Bootstrap(ctx, ""))
	})
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("Central", "central "))
	assert.True(t, SameName(" ТӨВ ", "төв"))
	assert.False(t, SameName("Central", "Other"))
}
