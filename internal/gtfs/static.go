package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/jamespfennell/gtfs"

	"ubmap.app/internal/logging"
)

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// readFeed loads a zipped static feed from a local path or an http(s) URL.
func readFeed(ctx context.Context, client *http.Client, logger *slog.Logger, source string) ([]byte, error) {
	if !isRemote(source) {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("reading local GTFS feed: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading GTFS feed: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, logger, "gtfs_feed_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading GTFS feed: status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading GTFS feed: %w", err)
	}
	return b, nil
}

func parseFeed(b []byte) (*gtfs.Static, error) {
	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("parsing GTFS feed: %w", err)
	}
	return staticData, nil
}
