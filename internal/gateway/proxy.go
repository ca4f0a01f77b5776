package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

const upstreamTimeout = 10 * time.Second

var ErrBadUpstream = errors.New("upstream url must be absolute http(s)")

// NewReverseProxy forwards to target unchanged. Upstream failures become
// JSON errors: 504 on timeout, 502 otherwise.
func NewReverseProxy(target string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrBadUpstream
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.Transport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: upstreamTimeout,
	}
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		status, msg := http.StatusBadGateway, "upstream unavailable"
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			status, msg = http.StatusGatewayTimeout, "upstream timeout"
		}
		log.Warn("proxy error",
			zap.String("upstream", u.Host),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		kit.WriteError(w, r, status, msg, nil)
	}
	return p, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// ForwardRequestID passes the gateway's request id upstream so one request
// can be followed across service logs.
func ForwardRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			r.Header.Set(chimw.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}
