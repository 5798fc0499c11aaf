package restapi

import (
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// CompressionConfig selects which responses are gzipped.
type CompressionConfig struct {
	MinSize      int
	Level        int
	ContentTypes []string
}

// DefaultCompressionConfig compresses the API envelopes and the map page
// assets. /metrics is left alone: promhttp negotiates its own encoding.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   6,
		ContentTypes: []string{
			"application/json",
			"text/html",
			"text/css",
			"text/javascript",
			"application/javascript",
		},
	}
}

// NewCompressionMiddleware builds the gzip wrapper for config. An invalid
// level or size is reported rather than silently replaced.
func NewCompressionMiddleware(config CompressionConfig) (func(http.Handler) http.Handler, error) {
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(config.MinSize),
		gzhttp.CompressionLevel(config.Level),
		gzhttp.ContentTypes(config.ContentTypes),
	)
	if err != nil {
		return nil, fmt.Errorf("configuring compression: %w", err)
	}
	return func(next http.Handler) http.Handler { return wrap(next) }, nil
}
