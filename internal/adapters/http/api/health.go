package api

import (
	"net/http"

	"github.com/okian/skins/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandleHealth serves the Prometheus exposition of the service registry.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
