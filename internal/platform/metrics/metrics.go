package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry.
type Metrics struct {
	Resolutions    *prometheus.CounterVec
	Certifications *prometheus.CounterVec
	Exports        *prometheus.CounterVec
	ExportBytes    prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_resolutions_total",
			Help: "Pointer resolutions by outcome (resolved, not_found, error)",
		}, []string{"outcome"}),
		Certifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_certifications_total",
			Help: "Certification requests by result (certified, reused, blocked, error)",
		}, []string{"result"}),
		Exports: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_exports_total",
			Help: "Evidence exports by outcome (resolved, unresolved, error)",
		}, []string{"outcome"}),
		ExportBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "registry_export_archive_bytes",
			Help:    "Size of generated export archives",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
}
