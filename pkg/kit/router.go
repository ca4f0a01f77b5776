package kit

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

// NewRouter returns a chi router with request ids, panic recovery, request
// logging and, when a registry is given, request metrics.
func NewRouter(deps HTTPDeps) *chi.Mux {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Recoverer)
	r.Use(Logging(log))

	if deps.Registry == nil {
		if deps.MetricsEnabled {
			log.Warn("metrics enabled but registry is nil")
		}
		return r
	}

	metrics := NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, ChiRoutePatternOrPath))

	if deps.MetricsEnabled {
		r.With(MetricsAuth(deps.MetricsToken)).
			Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
	return r
}
