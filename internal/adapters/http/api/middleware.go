package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tipping/pkg/logger"
	"github.com/okian/tipping/pkg/metrics"
)

// Headers carrying correlation ids.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderRunID     = "X-Run-ID"
)

type ctxKey struct{}

// RequestID returns the id attached by RequestIDMiddleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequestIDMiddleware tags each request with an id. A valid incoming
// X-Request-ID is kept; anything else is replaced by a fresh UUID. The id is
// echoed in the response and logged together with a sweep run id, if any.
func RequestIDMiddleware(next http.Handler) http.Handler {
	log := logger.Get().Named("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), ctxKey{}, id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		log.Debug(ctx, "request",
			logger.String("id", id),
			logger.String("run", r.Header.Get(HeaderRunID)),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Float64("ms", float64(time.Since(start).Microseconds())/1000),
		)
	})
}

// MetricsMiddleware records request count and latency for endpoint, plus
// error counters when the handler answers with a 4xx or 5xx status.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(start)
		durationMs := float64(elapsed.Microseconds()) / 1000
		status := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, elapsed.Seconds())

		if errorType, severity, ok := classifyStatus(wrapped.statusCode); ok {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByType(errorType, severity)
			metrics.RecordErrorLatency("http", errorType, durationMs)
		}
	}
}

// classifyStatus maps an error status to its metric labels. Handlers answer
// 400 for malformed query parameters and 404 for anything but GET.
func classifyStatus(code int) (errorType, severity string, ok bool) {
	switch {
	case code >= http.StatusInternalServerError:
		return "server_error", "high", true
	case code == http.StatusBadRequest:
		return "bad_request", "medium", true
	case code == http.StatusNotFound:
		return "not_found", "low", true
	case code >= http.StatusBadRequest:
		return "client_error", "medium", true
	default:
		return "", "", false
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
