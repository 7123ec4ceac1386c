// Package overpass fetches bus stops from OpenStreetMap Overpass mirrors.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"ubmap.app/internal/logging"
)

const (
	// DefaultBBox covers Ulaanbaatar, as south,west,north,east.
	DefaultBBox = "47.84,106.76,47.99,107.20"

	// QueryTimeout is the server side limit in seconds sent with every query.
	QueryTimeout = 25

	DefaultStopName = "Bus Stop"
)

var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://lz4.overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
}

// Endpoints returns the preferred mirrors followed by DefaultEndpoints,
// without blanks or repeats.
func Endpoints(preferred ...string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(preferred)+len(DefaultEndpoints))
	for _, list := range [][]string{preferred, DefaultEndpoints} {
		for _, e := range list {
			e = strings.TrimSpace(e)
			if e == "" || seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// Candidate is a bus stop reported by a mirror. HasCoord is false when the
// element carried no usable position.
type Candidate struct {
	Name     string
	Point    orb.Point
	HasCoord bool
	OSMType  string
	OSMID    int64
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *latLon           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type latLon struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type response struct {
	Elements []element `json:"elements"`
}

type Client struct {
	endpoints  []string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient queries endpoints in order. A nil or empty list uses
// DefaultEndpoints.
func NewClient(endpoints []string, logger *slog.Logger) *Client {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: (QueryTimeout + 5) * time.Second},
		logger:     logger.With(slog.String("component", "overpass_client")),
	}
}

// BuildQuery returns the Overpass QL for bus stops inside bbox
// (south,west,north,east).
func BuildQuery(bbox string) string {
	return fmt.Sprintf(`[out:json][timeout:%d];
(
  node["highway"="bus_stop"](%[2]s);
  node["public_transport"="platform"](%[2]s);
  node["public_transport"="stop_position"](%[2]s);
  way["public_transport"="platform"](%[2]s);
);
out body center;`, QueryTimeout, bbox)
}

// FetchBusStops returns the candidates from the first mirror that reports at
// least one element. Mirror failures are logged and the next one is tried;
// when every mirror fails the result is empty.
func (c *Client) FetchBusStops(ctx context.Context, bbox string) []Candidate {
	if strings.TrimSpace(bbox) == "" {
		bbox = DefaultBBox
	}
	query := BuildQuery(bbox)

	for _, endpoint := range c.endpoints {
		elements, err := c.fetch(ctx, endpoint, query)
		if err != nil {
			c.logger.Warn("overpass mirror failed",
				slog.String("endpoint", endpoint),
				slog.String("error", err.Error()))
			continue
		}
		if len(elements) == 0 {
			c.logger.Debug("overpass mirror returned no elements", slog.String("endpoint", endpoint))
			continue
		}

		candidates := make([]Candidate, 0, len(elements))
		for _, el := range elements {
			candidates = append(candidates, toCandidate(el))
		}
		c.logger.Info("overpass stops fetched",
			slog.String("endpoint", endpoint),
			slog.Int("count", len(candidates)))
		return candidates
	}

	return []Candidate{}
}

// fetch POSTs the query as form data, retrying once as GET when the mirror
// rejects the POST.
func (c *Client) fetch(ctx context.Context, endpoint, query string) ([]element, error) {
	form := url.Values{"data": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		logging.SafeCloseWithLogging(resp.Body, c.logger, "overpass_post_body")

		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+form.Encode(), nil)
		if err != nil {
			return nil, err
		}
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "overpass_body")

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return body.Elements, nil
}

func toCandidate(el element) Candidate {
	c := Candidate{
		Name:    stopName(el.Tags),
		OSMType: el.Type,
		OSMID:   el.ID,
	}

	lat, lon := el.Lat, el.Lon
	if el.Type != "node" {
		lat, lon = nil, nil
		if el.Center != nil {
			lat, lon = el.Center.Lat, el.Center.Lon
		}
	}
	if lat != nil && lon != nil {
		c.Point = orb.Point{*lon, *lat}
		c.HasCoord = true
	}
	return c
}

func stopName(tags map[string]string) string {
	if name := strings.TrimSpace(tags["name"]); name != "" {
		return name
	}
	if ref := strings.TrimSpace(tags["ref"]); ref != "" {
		return ref
	}
	return DefaultStopName
}
