package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 47.91, "lon": 106.91, "tags": {"highway": "bus_stop", "name": "Central"}},
    {"type": "node", "id": 2, "lat": 47.92, "lon": 106.92, "tags": {"ref": "B12"}},
    {"type": "node", "id": 3, "lat": 47.93, "lon": 106.93},
    {"type": "way", "id": 4, "center": {"lat": 47.94, "lon": 106.94}, "tags": {"public_transport": "platform", "name": "Market"}},
    {"type": "way", "id": 5, "tags": {"name": "No center"}}
  ]
}`

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(DefaultBBox)
	assert.Contains(t, q, "[out:json][timeout:25];")
	assert.Contains(t, q, `node["highway"="bus_stop"](47.84,106.76,47.99,107.20);`)
	assert.Contains(t, q, `node["public_transport"="platform"](47.84,106.76,47.99,107.20);`)
	assert.Contains(t, q, `node["public_transport"="stop_position"](47.84,106.76,47.99,107.20);`)
	assert.Contains(t, q, `way["public_transport"="platform"](47.84,106.76,47.99,107.20);`)
	assert.Contains(t, q, "out body center;")
}

func TestFetchBusStops(t *testing.T) {
	t.Run("parses names and coordinates", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, r.ParseForm())
			gotQuery = r.PostForm.Get("data")
			_, _ = w.Write([]byte(sampleResponse))
		}))
		defer server.Close()

		stops := NewClient([]string{server.URL}, nil).FetchBusStops(context.Background(), "")
		require.Len(t, stops, 5)
		assert.Contains(t, gotQuery, DefaultBBox)

		assert.Equal(t, Candidate{Name: "Central", Point: orb.Point{106.91, 47.91}, HasCoord: true, OSMType: "node", OSMID: 1}, stops[0])
		assert.Equal(t, "B12", stops[1].Name)
		assert.Equal(t, DefaultStopName, stops[2].Name)
		assert.Equal(t, orb.Point{106.94, 47.94}, stops[3].Point)
		assert.True(t, stops[3].HasCoord)
		assert.False(t, stops[4].HasCoord)
	})

	t.Run("retries as GET when POST is rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			assert.Contains(t, r.URL.Query().Get("data"), "47.0,106.0,48.0,107.0")
			_, _ = w.Write([]byte(sampleResponse))
		}))
		defer server.Close()

		stops := NewClient([]string{server.URL}, nil).FetchBusStops(context.Background(), "47.0,106.0,48.0,107.0")
		assert.Len(t, stops, 5)
	})

	t.Run("falls through failing and empty mirrors", func(t *testing.T) {
		var calls atomic.Int32
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer failing.Close()
		empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`{"elements": []}`))
		}))
		defer empty.Close()
		garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`<html>busy</html>`))
		}))
		defer garbage.Close()
		good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(sampleResponse))
		}))
		defer good.Close()

		client := NewClient([]string{failing.URL, empty.URL, garbage.URL, good.URL}, nil)
		stops := client.FetchBusStops(context.Background(), "")
		assert.Len(t, stops, 5)
		// POST and GET on the failing mirror, one POST on each of the others.
		assert.Equal(t, int32(4), calls.Load())
	})

	t.Run("every mirror down yields an empty list", func(t *testing.T) {
		stops := NewClient([]string{"http://127.0.0.1:1"}, nil).FetchBusStops(context.Background(), "")
		assert.NotNil(t, stops)
		assert.Empty(t, stops)
	})
}

func TestEndpoints(t *testing.T) {
	assert.Equal(t, DefaultEndpoints, Endpoints())
	assert.Equal(t, DefaultEndpoints, Endpoints("", "  "))

	got := Endpoints("http://local/api/interpreter", DefaultEndpoints[1])
	assert.Equal(t, []string{
		"http://local/api/interpreter",
		"https://lz4.overpass-api.de/api/interpreter",
		"https://overpass-api.de/api/interpreter",
		"https://overpass.kumi.systems/api/interpreter",
	}, got)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(nil, nil)
	assert.Equal(t, DefaultEndpoints, client.endpoints)
}
