package gtfs

import "time"

// DefaultDownloadTimeout bounds fetching a static feed from a URL.
const DefaultDownloadTimeout = 60 * time.Second

// MaxFeedBytes caps the size of a feed read from a URL or request body.
const MaxFeedBytes = 64 << 20

type Config struct {
	// GtfsURL is the static feed used when an import names no source.
	GtfsURL         string
	DownloadTimeout time.Duration
}
