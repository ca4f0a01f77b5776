package cart

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/internal/visitor"
	"Storefront/pkg/kit"
)

type HTTPDeps struct {
	kit.HTTPDeps

	Sessions *visitor.TokenMaker
	Cookie   visitor.CookieConfig

	// RateLimit caps cart mutations per client IP per RateWindow; zero disables it.
	RateLimit  int
	RateWindow time.Duration
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if s.Log == nil {
		s.Log = deps.Log
	}
	if s.Log == nil {
		s.Log = zap.NewNop()
	}

	r := kit.NewRouter(deps.HTTPDeps)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	r.Group(func(cr chi.Router) {
		cr.Use(visitor.Middleware(deps.Sessions, deps.Cookie, deps.Log))
		if deps.RateLimit > 0 {
			limiter := kit.NewIPRateLimiter(deps.RateLimit, deps.RateWindow)
			cr.Use(limiter.MutationsOnly)
		}
		s.CartRoutes(cr)
	})

	return r
}
