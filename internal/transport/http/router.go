package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quorum/pkg/platform/middleware/requestid"
	"quorum/pkg/platform/middleware/requesttime"
)

// NewRouter wires the registry endpoints. Every operation is POST-only;
// pre-flight OPTIONS probes get an empty success and other verbs get 405.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	operation(r, "/registry/resolve", h.handleResolve)
	operation(r, "/registry/certify", h.handleCertify)
	operation(r, "/registry/export", h.handleExport)

	return r
}

func operation(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.Post(pattern, handler)
	r.Options(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
