package middleware

import (
	"log/slog"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressibleTypes are the response types worth gzipping. Images and PDFs
// from the media bucket never pass through here.
var compressibleTypes = []string{
	"text/html",
	"text/plain",
	"text/css",
	"application/json",
	"application/xml",
	"application/rss+xml",
	"application/ld+json",
}

// Compress gzips responses of compressibleTypes above 1 KB for clients that
// accept it.
func Compress(next http.Handler) http.Handler {
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(1024),
		gzhttp.ContentTypes(compressibleTypes),
	)
	if err != nil {
		slog.Error("gzip disabled", "error", err)
		return next
	}
	return wrap(next)
}
