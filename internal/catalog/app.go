package catalog

import (
	"net/http"

	"Storefront/pkg/kit"
)

func NewHandler(s *Server, deps kit.HTTPDeps) http.Handler {
	if s.Log == nil {
		s.Log = deps.Log
	}

	r := kit.NewRouter(deps)
	r.Mount("/", s.Routes())
	return r
}
