// Package httptransport assembles the HTTP surface: routing, request-scoped
// middleware, health, and metrics. Handlers stay in their domain packages.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	nexushandler "taxrelief/internal/nexus/handler"
	recordhandler "taxrelief/internal/record/handler"
	"taxrelief/pkg/platform/httputil"
)

// NewRouter wires all public endpoints.
func NewRouter(records *recordhandler.Handler, nexus *nexushandler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Actor)

	records.Register(r)
	nexus.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
