package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

const (
	// Place lists and route geometries are long coordinate arrays; small
	// error bodies are not worth the framing.
	compressMinSize = 1024
	compressLevel   = 6
)

var compressedContentTypes = []string{
	"application/json",
	"application/geo+json",
}

// CompressionMiddleware gzips JSON responses for clients that accept it.
func CompressionMiddleware(next http.Handler) http.Handler {
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(compressMinSize),
		gzhttp.CompressionLevel(compressLevel),
		gzhttp.ContentTypes(compressedContentTypes),
	)
	if err != nil {
		return gzhttp.GzipHandler(next)
	}
	return wrap(next)
}
