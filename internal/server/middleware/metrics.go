package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/giantswarm/kubectl-gateway/internal/instrumentation"
)

// otherPath is the metric label for requests outside the known routes.
const otherPath = "other"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing the header.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures that a response was written.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter to support http.Flusher etc.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Flush implements http.Flusher for streaming MCP responses.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPMetrics creates middleware that records the count and duration of
// every request by method, path and status.
//
// When routes are given, any other path is recorded as "other" so scanners
// cannot blow up the label set. Without routes, UUID and numeric path
// segments are replaced by placeholders.
//
// A nil or disabled provider turns the middleware into a pass-through.
func HTTPMetrics(provider *instrumentation.Provider, routes ...string) func(http.Handler) http.Handler {
	known := make(map[string]struct{}, len(routes))
	for _, route := range routes {
		known[route] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if provider == nil || !provider.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			provider.Metrics().RecordHTTPRequest(
				r.Context(),
				r.Method,
				metricPath(r.URL.Path, known),
				wrapped.statusCode,
				time.Since(start),
			)
		})
	}
}

func metricPath(path string, known map[string]struct{}) string {
	if len(known) == 0 {
		return normalizePath(path)
	}
	if _, ok := known[path]; ok {
		return path
	}
	return otherPath
}

var (
	uuidPattern      = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	numericIDPattern = regexp.MustCompile(`/\d+(/|$)`)
)

// normalizePath replaces dynamic path segments with placeholders.
func normalizePath(path string) string {
	path = uuidPattern.ReplaceAllString(path, ":uuid")
	return numericIDPattern.ReplaceAllString(path, "/:id$1")
}
