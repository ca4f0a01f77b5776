package catalog

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/internal/checkout"
	"Storefront/internal/money"
	"Storefront/pkg/kit"
)

type Server struct {
	Store *Store
	Shop  checkout.Shop
	Log   *zap.Logger
}

type listResponse struct {
	Products          []Product `json:"products"`
	Category          string    `json:"category"`
	SubCategory       string    `json:"subcategory"`
	SubCategories     []string  `json:"subcategories"`
	ShowSubCategories bool      `json:"show_subcategories"`
}

type priceResponse struct {
	ProductID string       `json:"product_id"`
	Variants  Selection    `json:"variants"`
	Price     money.Amount `json:"price"`
}

type productResponse struct {
	Product
	Images      []string `json:"images"`
	HasCarousel bool     `json:"has_carousel"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/categories", s.categories)
	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/products/{id}/price", s.price)
	r.Get("/products/{id}/enquiry", s.enquiry)

	return r
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*Catalog, bool) {
	c, err := s.Store.Snapshot()
	if err != nil {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return nil, false
	}
	return c, true
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	c, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"categories": c.Categories()})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	c, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	f := NewFilter(c)
	f.SelectCategory(r.URL.Query().Get("category"))
	f.SelectSubCategory(r.URL.Query().Get("subcategory"))

	kit.WriteJSON(w, http.StatusOK, listResponse{
		Products:          f.Visible(),
		Category:          f.Category(),
		SubCategory:       f.SubCategory(),
		SubCategories:     f.SubCategories(),
		ShowSubCategories: f.ShowSubCategories(),
	})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	p, ok := s.product(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, productResponse{
		Product:     p,
		Images:      p.Images(),
		HasCarousel: p.HasCarousel(),
	})
}

func (s *Server) price(w http.ResponseWriter, r *http.Request) {
	p, ok := s.product(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	raw := make(Selection, 0, len(q))
	for name := range q {
		raw = append(raw, Choice{Name: name, Value: q.Get(name)})
	}

	sel, err := NormalizeSelection(p, raw)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid variant", map[string]any{"cause": err.Error()})
		return
	}

	kit.WriteJSON(w, http.StatusOK, priceResponse{
		ProductID: p.ID,
		Variants:  sel,
		Price:     ResolvePrice(p, sel),
	})
}

func (s *Server) enquiry(w http.ResponseWriter, r *http.Request) {
	p, ok := s.product(w, r)
	if !ok {
		return
	}
	if s.Shop.Phone == "" {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "messaging not configured", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"url": checkout.Enquiry(s.Shop, p.Name)})
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) (Product, bool) {
	c, ok := s.snapshot(w, r)
	if !ok {
		return Product{}, false
	}

	id := chi.URLParam(r, "id")
	p, found := c.Get(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return Product{}, false
	}
	return p, true
}
