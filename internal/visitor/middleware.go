package visitor

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultCookieName = "cart_session"

	// HeaderName carries the token for clients without a cookie jar.
	HeaderName = "X-Cart-Session"
)

type ctxKey struct{}

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKey{}).(string)
	return v, ok && v != ""
}

func WithVisitor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Middleware resolves the visitor from the session cookie or header. A
// missing or invalid token starts a new visitor with an empty cart; the
// token is (re)issued on every response.
func Middleware(tm *TokenMaker, cfg CookieConfig, log *zap.Logger) func(http.Handler) http.Handler {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if raw := presentedToken(r, cfg.Name); raw != "" {
				if claims, err := tm.Parse(raw); err == nil {
					id = claims.VisitorID
				}
			}
			if id == "" {
				id = NewVisitorID()
			}

			tok, err := tm.New(id, cfg.TTL)
			if err != nil {
				log.Error("issue visitor token", zap.Error(err))
				http.Error(w, "server error", http.StatusInternalServerError)
				return
			}

			cookie := &http.Cookie{
				Name:     cfg.Name,
				Value:    tok,
				Path:     "/",
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if cfg.TTL > 0 {
				cookie.MaxAge = int(cfg.TTL.Seconds())
			}
			http.SetCookie(w, cookie)
			w.Header().Set(HeaderName, tok)

			next.ServeHTTP(w, r.WithContext(WithVisitor(r.Context(), id)))
		})
	}
}

func presentedToken(r *http.Request, cookieName string) string {
	if v := r.Header.Get(HeaderName); v != "" {
		return v
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
