package cart

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/checkout"
	"Storefront/internal/money"
	"Storefront/internal/visitor"
	"Storefront/pkg/kit"
)

type Server struct {
	Service *Service
	Log     *zap.Logger
}

type cartView struct {
	Items []LineItem   `json:"items"`
	Total money.Amount `json:"total"`
	Count int          `json:"count"`
}

func viewOf(c *Cart) cartView {
	return cartView{Items: c.Items(), Total: c.Total(), Count: c.Count()}
}

type addReq struct {
	ProductID string            `json:"product_id"`
	Variants  catalog.Selection `json:"variants"`
}

type addResp struct {
	Item LineItem `json:"item"`
	Cart cartView `json:"cart"`
}

type quantityReq struct {
	Quantity *int `json:"quantity"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) CartRoutes(r chi.Router) {
	r.Get("/cart", s.get)
	r.Get("/cart/count", s.count)
	r.Post("/cart/items", s.add)
	r.Put("/cart/items/{itemID}", s.setQuantity)
	r.Delete("/cart/items/{itemID}", s.remove)
	r.Delete("/cart", s.clear)
	r.Post("/cart/checkout", s.checkout)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Service.Repo.Store.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed: store", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "store not ready", nil)
		return
	}
	if p, ok := s.Service.Catalog.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			s.Log.Warn("readyz failed: catalog", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := s.visitorID(w, r)
	if !ok {
		return
	}

	c, err := s.Service.Get(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) count(w http.ResponseWriter, r *http.Request) {
	id, ok := s.visitorID(w, r)
	if !ok {
		return
	}

	c, err := s.Service.Get(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]int{"count": c.Count()})
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	id, ok := s.visitorID(w, r)
	if !ok {
		return
	}

	var req addReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.ProductID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	item, c, err := s.Service.Add(r.Context(), id, req.ProductID, req.Variants)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, addResp{Item: item, Cart: viewOf(c)})
}

func (s *Server) setQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.visitorID(w, r)
	if !ok {
		return
	}

	var req quantityReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Quantity == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "quantity required", nil)
		return
	}

	c, err := s.Service.SetQuantity(r.Context(), id, itemParam(r), *req.Quantity)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.visitorID(w, r)
	if !ok {
		return
	}

	c, err := s.Service.Remove(r.Context(), id, itemParam(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	id, ok := s.visitorID(w, r)
	if !ok {
		return
	}

	c, err := s.Service.Clear(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := s.visitorID(w, r)
	if !ok {
		return
	}

	order, err := s.Service.Checkout(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, order)
}

func (s *Server) visitorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := visitor.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no cart session", nil)
		return "", false
	}
	return id, true
}

// itemParam returns the decoded line id. chi routes on RawPath when the
// request has one, and only then is the parameter still escaped.
func itemParam(r *http.Request) string {
	v := chi.URLParam(r, "itemID")
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "product not found", nil)
	case errors.Is(err, ErrQuantityTooLarge):
		kit.WriteError(w, r, http.StatusBadRequest, "quantity too large", map[string]any{"max": MaxQuantity})
	case errors.Is(err, catalog.ErrInvalidVariant):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid variant", map[string]any{"cause": err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart):
		kit.WriteError(w, r, http.StatusConflict, "cart is empty", nil)
	case errors.Is(err, checkout.ErrNoPhone):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "messaging not configured", nil)
	case errors.Is(err, ErrCatalogUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	case errors.Is(err, ErrCatalogBadStatus):
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
	case isTimeoutErr(err):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.Log.Error("cart request failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
