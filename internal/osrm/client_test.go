package osrm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
	"code": "Ok",
	"routes": [{
		"geometry": {"type": "LineString", "coordinates": [[106.91, 47.91], [106.92, 47.915], [106.93, 47.92]]},
		"distance": 2310.4,
		"duration": 301.7
	}]
}`

var (
	from = orb.Point{106.91, 47.91}
	to   = orb.Point{106.93, 47.92}
)

func newEngine(t *testing.T, status int, body string) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var lastPath atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastPath.Store(r.URL.Path + "?" + r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &lastPath
}

func TestTryRouteSuccess(t *testing.T) {
	server, lastPath := newEngine(t, http.StatusOK, okBody)
	client := NewClient(Config{BaseURL: server.URL}, nil)

	route, ok := client.TryRoute(context.Background(), "car", from, to)
	require.True(t, ok)

	assert.Equal(t, "/route/v1/car/106.91,47.91;106.93,47.92?overview=full&geometries=geojson", lastPath.Load())
	assert.Len(t, route.Geometry, 3)
	assert.Equal(t, orb.Point{106.92, 47.915}, route.Geometry[1])
	assert.Equal(t, 2310.4, route.DistanceM)
	assert.Equal(t, 301.7, route.DurationS)
}

func TestTryRouteMisses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: okBody},
		{name: "bad request", status: http.StatusBadRequest, body: `{"code":"InvalidQuery"}`},
		{name: "no route", status: http.StatusOK, body: `{"code":"NoRoute","routes":[]}`},
		{name: "ok without routes", status: http.StatusOK, body: `{"code":"Ok","routes":[]}`},
		{name: "malformed json", status: http.StatusOK, body: `{"code":"Ok","routes":[`},
		{name: "missing geometry", status: http.StatusOK, body: `{"code":"Ok","routes":[{"distance":1,"duration":1}]}`},
		{name: "missing duration", status: http.StatusOK, body: `{"code":"Ok","routes":[{"geometry":{"type":"LineString","coordinates":[[1,1],[2,2]]},"distance":1}]}`},
		{name: "point geometry", status: http.StatusOK, body: `{"code":"Ok","routes":[{"geometry":{"type":"Point","coordinates":[1,1]},"distance":1,"duration":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newEngine(t, tt.status, tt.body)
			client := NewClient(Config{BaseURL: server.URL}, nil)

			_, ok := client.TryRoute(context.Background(), "car", from, to)
			assert.False(t, ok)
		})
	}
}

func TestTryRouteUnreachable(t *testing.T) {
	server, _ := newEngine(t, http.StatusOK, okBody)
	url := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: url}, nil)
	_, ok := client.TryRoute(context.Background(), "foot", from, to)
	assert.False(t, ok)
}

func TestTryRouteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	_, ok := client.TryRoute(context.Background(), "car", from, to)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProfileEndpointSelection(t *testing.T) {
	footServer, footPath := newEngine(t, http.StatusOK, okBody)
	carServer, carPath := newEngine(t, http.StatusOK, okBody)

	client := NewClient(Config{
		BaseURL:     carServer.URL + "/",
		ProfileURLs: map[string]string{"foot": footServer.URL},
	}, nil)

	assert.Equal(t, footServer.URL, client.BaseURLForProfile("foot"))
	assert.Equal(t, footServer.URL, client.BaseURLForProfile("FOOT"))
	assert.Equal(t, carServer.URL, client.BaseURLForProfile("car"))
	assert.Equal(t, carServer.URL, client.BaseURLForProfile("bicycle"))

	_, ok := client.TryRoute(context.Background(), "foot", from, to)
	require.True(t, ok)
	assert.Contains(t, footPath.Load(), "/route/v1/foot/")
	assert.Nil(t, carPath.Load())

	_, ok = client.TryRoute(context.Background(), "car", from, to)
	require.True(t, ok)
	assert.Contains(t, carPath.Load(), "/route/v1/car/")
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://osrm:5002"}, nil)
	assert.Equal(t, DefaultTimeout, client.config.Timeout)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}
