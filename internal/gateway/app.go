// Package gateway is the public entry point: it routes catalog and cart
// paths to their services and reports combined readiness.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Storefront/pkg/kit"
)

type Deps struct {
	CatalogURL string
	CartURL    string
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

func NewHandler(deps Deps, httpDeps kit.HTTPDeps) (http.Handler, error) {
	log := httpDeps.Log
	if log == nil {
		log = zap.NewNop()
	}

	catalogProxy, err := NewReverseProxy(deps.CatalogURL, log)
	if err != nil {
		return nil, fmt.Errorf("catalog upstream: %w", err)
	}
	cartProxy, err := NewReverseProxy(deps.CartURL, log)
	if err != nil {
		return nil, fmt.Errorf("cart upstream: %w", err)
	}

	r := kit.NewRouter(httpDeps)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readyz(deps, log))

	r.Group(func(pr chi.Router) {
		pr.Use(ForwardRequestID)

		pr.Handle("/categories", catalogProxy)
		pr.Handle("/products", catalogProxy)
		pr.Handle("/products/*", catalogProxy)

		pr.Handle("/cart", cartProxy)
		pr.Handle("/cart/*", cartProxy)
	})

	return r, nil
}

// readyz probes every upstream concurrently and names the first one down.
func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	upstreams := []struct{ name, url string }{
		{"catalog", deps.CatalogURL},
		{"cart", deps.CartURL},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		failed := make([]error, len(upstreams))
		var g errgroup.Group
		for i, u := range upstreams {
			g.Go(func() error {
				failed[i] = checkReady(ctx, u.url+"/readyz")
				return nil
			})
		}
		_ = g.Wait()

		for i, err := range failed {
			if err != nil {
				log.Warn("readyz failed", zap.String("upstream", upstreams[i].name), zap.Error(err))
				kit.WriteError(w, r, http.StatusServiceUnavailable, upstreams[i].name+" not ready", nil)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}
	return nil
}
