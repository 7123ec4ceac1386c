package appconf

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// EnvFlagToEnvironment maps the -env flag value to an Environment.
// Unknown values are treated as development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

const (
	DefaultOSRMURL                = "http://router.project-osrm.org"
	DefaultOSRMProfileURLs        = "foot=http://osrm_foot:5003,car=http://osrm:5002"
	DefaultOSRMTimeout            = 6 * time.Second
	DefaultBusStopBBox            = "47.84,106.76,47.99,107.20"
	DefaultStopDedupMeters        = 20.0
	DefaultIntermediateStopMeters = 100.0
	DefaultCloudinaryFolder       = "ubmap"
)

// Cloudinary holds image host credentials. An empty CloudName disables uploads.
type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

func (c Cloudinary) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Config holds all the configuration settings for the application.
type Config struct {
	Port        int
	Env         Environment
	AdminSecret string
	RateLimit   int // requests per second per client
	DBPath      string

	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []netip.Prefix

	OSRMURL         string
	OSRMProfileURLs map[string]string
	OSRMTimeout     time.Duration

	// OverpassURLs are tried in order. Empty means the client defaults.
	OverpassURLs []string
	BusStopBBox  string

	// GtfsURL is the static feed imported when a request provides none.
	GtfsURL string

	StopDedupMeters        float64
	IntermediateStopMeters float64

	Cloudinary Cloudinary
}

// ParseProfileURLs parses "foot=http://a,car=http://b" into a profile map.
// Profile names are lowercased.
func ParseProfileURLs(s string) (map[string]string, error) {
	profiles := make(map[string]string)
	for _, pair := range SplitList(s) {
		name, url, ok := strings.Cut(pair, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		url = strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("invalid profile mapping %q, expected profile=url", pair)
		}
		profiles[name] = url
	}
	return profiles, nil
}

// ParsePrefixes parses a comma separated list of CIDR prefixes or bare IPs.
func ParsePrefixes(s string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, item := range SplitList(s) {
		if !strings.Contains(item, "/") {
			addr, err := netip.ParseAddr(item)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", item, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(item)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", item, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

// SplitList splits a comma separated value, trimming blanks and dropping empties.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports configuration that would leave the server unusable.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.OSRMURL == "" && len(c.OSRMProfileURLs) == 0 {
		return fmt.Errorf("an OSRM base URL or profile mapping is required")
	}
	if c.StopDedupMeters < 0 || c.IntermediateStopMeters < 0 {
		return fmt.Errorf("distance thresholds must not be negative")
	}
	return nil
}
