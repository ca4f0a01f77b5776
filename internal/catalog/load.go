package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const maxCatalogBytes = 8 << 20

var ErrBadStatus = errors.New("catalog source bad status")

// Loader reads the product list from a JSON file or an http(s) URL.
type Loader struct {
	Location string
	Client   *http.Client
}

func NewLoader(location string) *Loader {
	return &Loader{
		Location: strings.TrimSpace(location),
		Client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	rc, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	products, err := Decode(rc)
	if err != nil {
		return nil, err
	}
	return New(products)
}

func (l *Loader) open(ctx context.Context) (io.ReadCloser, error) {
	if l.Location == "" {
		return nil, errors.New("catalog source not configured")
	}
	if !isURL(l.Location) {
		return os.Open(l.Location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Location, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}
	return resp.Body, nil
}

// Decode parses a JSON array of products.
func Decode(r io.Reader) ([]Product, error) {
	var products []Product
	dec := json.NewDecoder(io.LimitReader(r, maxCatalogBytes))
	if err := dec.Decode(&products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return products, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
