// Package osrm is a minimal client for OSRM-compatible routing backends.
// Every failure mode collapses into a miss: callers only learn whether the
// engine answered with a usable route.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"ubmap.app/internal/logging"
)

// DefaultTimeout bounds a single route request.
const DefaultTimeout = 6 * time.Second

// Config selects the backend for each travel profile.
type Config struct {
	// BaseURL serves every profile without an entry in ProfileURLs.
	BaseURL string
	// ProfileURLs maps a profile (foot, car, ...) to a dedicated backend.
	ProfileURLs map[string]string
	Timeout     time.Duration
}

// Route is a usable answer from the engine.
type Route struct {
	Geometry  orb.LineString
	DistanceM float64
	DurationS float64
}

type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With(slog.String("component", "osrm_client")),
	}
}

// BaseURLForProfile returns the backend base URL used for profile.
func (c *Client) BaseURLForProfile(profile string) string {
	if u, ok := c.config.ProfileURLs[strings.ToLower(profile)]; ok && u != "" {
		return strings.TrimSuffix(u, "/")
	}
	return strings.TrimSuffix(c.config.BaseURL, "/")
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry *geojson.Geometry `json:"geometry"`
		Distance *float64          `json:"distance"`
		Duration *float64          `json:"duration"`
	} `json:"routes"`
}

func formatCoord(p orb.Point) string {
	return strconv.FormatFloat(p.Lon(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat(), 'f', -1, 64)
}

// TryRoute asks the engine for a route once. The boolean is false on any
// network failure, non-2xx status, malformed body or "no route" answer.
func (c *Client) TryRoute(ctx context.Context, profile string, from, to orb.Point) (Route, bool) {
	url := fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=full&geometries=geojson",
		c.BaseURLForProfile(profile), profile, formatCoord(from), formatCoord(to))

	route, err := c.fetch(ctx, url)
	if err != nil {
		c.logger.Debug("engine miss",
			slog.String("profile", profile),
			slog.String("url", url),
			slog.String("reason", err.Error()))
		return Route{}, false
	}
	return route, true
}

func (c *Client) fetch(ctx context.Context, url string) (Route, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Route{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Route{}, err
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "osrm_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Route{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Route{}, fmt.Errorf("decoding response: %w", err)
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		return Route{}, fmt.Errorf("no route (code %q)", body.Code)
	}

	first := body.Routes[0]
	if first.Geometry == nil || first.Distance == nil || first.Duration == nil {
		return Route{}, fmt.Errorf("route is missing geometry, distance or duration")
	}

	line, ok := first.Geometry.Coordinates.(orb.LineString)
	if !ok || len(line) < 2 {
		return Route{}, fmt.Errorf("route geometry is not a line string")
	}

	return Route{
		Geometry:  line,
		DistanceM: *first.Distance,
		DurationS: *first.Duration,
	}, nil
}
