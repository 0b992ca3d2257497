package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/skins/pkg/logger"
	"github.com/okian/skins/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// MetricsMiddleware records Prometheus metrics per route pattern so path
// parameters do not explode label cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		endpoint := routePattern(r)
		durationMs := float64(time.Since(start).Microseconds()) / 1000
		code := strconv.Itoa(status)

		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, durationMs)

		if status >= http.StatusBadRequest {
			errorType := errorType(status)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByType(errorType, severity(status))
			metrics.RecordErrorLatency("http", errorType, durationMs)
		}
	})
}

// RequestLogger logs one line per request at debug level, and at warn for
// server errors.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []logger.Field{
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
		}
		log := logger.Named("http")
		if ww.Status() >= http.StatusInternalServerError {
			log.Warn(r.Context(), "request failed", fields...)
			return
		}
		log.Debug(r.Context(), "request", fields...)
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

func errorType(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "rate_limit"
	case status == http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

func severity(status int) string {
	if status >= http.StatusInternalServerError {
		return "high"
	}
	return "medium"
}
