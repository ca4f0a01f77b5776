package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Storefront/internal/catalog"
)

var (
	ErrCatalogNotFound    = errors.New("catalog product not found")
	ErrCatalogBadStatus   = errors.New("catalog bad status")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// ProductSource is where the cart reads product data from.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// CatalogClient talks to the catalog service over HTTP.
type CatalogClient struct {
	BaseURL string
	Client  *http.Client
}

func NewCatalogClient(baseURL string) *CatalogClient {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &CatalogClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *CatalogClient) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	endpoint := fmt.Sprintf("%s/products/%s", c.BaseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return catalog.Product{}, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return catalog.Product{}, ErrCatalogNotFound
	case http.StatusServiceUnavailable:
		return catalog.Product{}, ErrCatalogUnavailable
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return catalog.Product{}, fmt.Errorf("%w: status=%d", ErrCatalogBadStatus, resp.StatusCode)
	}

	var p catalog.Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return catalog.Product{}, fmt.Errorf("%w: decode: %v", ErrCatalogBadStatus, err)
	}
	return p, nil
}

// Ping checks the catalog's readiness endpoint.
func (c *CatalogClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/readyz", nil)
	if err != nil {
		return err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status=%d", ErrCatalogUnavailable, resp.StatusCode)
	}
	return nil
}
