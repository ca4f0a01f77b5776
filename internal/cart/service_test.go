package cart

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Storefront/internal/catalog"
	"Storefront/internal/checkout"
	"Storefront/internal/money"
)

type fakeSource struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	err      error
}

func (f *fakeSource) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return catalog.Product{}, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, ErrCatalogNotFound
	}
	return p, nil
}

func (f *fakeSource) drop(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, id)
}

func filament() catalog.Product {
	return catalog.Product{
		ID:       "fil-pla",
		Name:     "Filamento PLA",
		Price:    money.New(5000),
		Category: "Filamentos",
		Variants: []catalog.Variant{
			{Name: "Color", Options: []string{"Negro", "Rojo"}},
			{Name: "Peso", Options: []string{"1kg", "500g"}},
		},
		VariantPrices: map[string]money.Amount{
			"Rojo": money.New(5500),
			"500g": money.New(3000),
		},
	}
}

func newTestService(t *testing.T) (*Service, *fakeSource) {
	t.Helper()

	src := &fakeSource{products: map[string]catalog.Product{
		"fil-pla": filament(),
		"llavero": {ID: "llavero", Name: "Llavero", Price: money.New(1000)},
	}}
	repo := NewRepository(NewMemStore(), "", nil)
	svc := NewService(repo, src, checkout.Shop{Name: "Tienda", Phone: "56911111111"})
	return svc, src
}

func TestService_AddAppliesVariantPrice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	item, c, err := svc.Add(ctx, "v1", "fil-pla", sel("Color", "Rojo"))
	require.NoError(t, err)

	assert.Equal(t, "fil-pla-Color:Rojo|Peso:1kg", item.ID)
	assert.Equal(t, int64(5500), item.Price.IntPart())
	assert.Equal(t, "Peso", item.Variants[1].Name)
	assert.Equal(t, 1, c.Count())
}

func TestService_AddMergesAndPersists(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, _, err := svc.Add(ctx, "v1", "fil-pla", sel("Peso", "1kg", "Color", "Negro"))
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, "v1", "fil-pla", sel("Color", "Negro"))
	require.NoError(t, err)

	c, err := svc.Get(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Items()[0].Quantity)

	other, err := svc.Get(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len())
}

func TestService_AddErrors(t *testing.T) {
	ctx := context.Background()
	svc, src := newTestService(t)

	_, _, err := svc.Add(ctx, "v1", "nope", nil)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, _, err = svc.Add(ctx, "v1", "fil-pla", sel("Color", "Azul"))
	assert.ErrorIs(t, err, catalog.ErrInvalidVariant)

	src.err = ErrCatalogUnavailable
	_, _, err = svc.Add(ctx, "v1", "fil-pla", nil)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	c, err := svc.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestService_QuantityRemoveClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	a, _, err := svc.Add(ctx, "v1", "llavero", nil)
	require.NoError(t, err)
	b, _, err := svc.Add(ctx, "v1", "fil-pla", nil)
	require.NoError(t, err)

	c, err := svc.SetQuantity(ctx, "v1", a.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Count())
	assert.Equal(t, int64(9000), c.Total().IntPart())

	c, err = svc.SetQuantity(ctx, "v1", "missing", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Count())

	c, err = svc.Remove(ctx, "v1", a.ID)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, b.ID, c.Items()[0].ID)

	c, err = svc.Clear(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	c, err = svc.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestService_QuantityIsBounded(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	a, _, err := svc.Add(ctx, "v1", "llavero", nil)
	require.NoError(t, err)
	b, _, err := svc.Add(ctx, "v1", "fil-pla", nil)
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, "v1", a.ID, math.MaxInt)
	assert.ErrorIs(t, err, ErrQuantityTooLarge)
	_, err = svc.SetQuantity(ctx, "v1", b.ID, MaxQuantity+1)
	assert.ErrorIs(t, err, ErrQuantityTooLarge)

	c, err := svc.SetQuantity(ctx, "v1", a.ID, MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity+1, c.Count())

	_, _, err = svc.Add(ctx, "v1", "llavero", nil)
	assert.ErrorIs(t, err, ErrQuantityTooLarge)

	c, err = svc.Get(ctx, "v1")
	require.NoError(t, err)
	got, _ := c.Get(a.ID)
	assert.Equal(t, MaxQuantity, got.Quantity)
	assert.Equal(t, MaxQuantity+1, c.Count())
}

func TestService_PriceIsCapturedAtAdd(t *testing.T) {
	ctx := context.Background()
	svc, src := newTestService(t)

	_, _, err := svc.Add(ctx, "v1", "llavero", nil)
	require.NoError(t, err)

	src.mu.Lock()
	p := src.products["llavero"]
	p.Price = money.New(1500)
	src.products["llavero"] = p
	src.mu.Unlock()

	c, err := svc.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.Total().IntPart())
}

func TestService_Checkout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	reg := prometheus.NewRegistry()
	svc.Metrics = NewMetrics(reg)

	_, err := svc.Checkout(ctx, "v1")
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)

	item, _, err := svc.Add(ctx, "v1", "fil-pla", sel("Peso", "500g"))
	require.NoError(t, err)
	_, err = svc.SetQuantity(ctx, "v1", item.ID, 2)
	require.NoError(t, err)

	order, err := svc.Checkout(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 2, order.Count)
	assert.Equal(t, int64(6000), order.Total.IntPart())
	assert.True(t, strings.HasPrefix(order.URL, "https://wa.me/56911111111?text="))
	assert.Contains(t, order.Message, "Filamento PLA")
	assert.Contains(t, order.Message, "Peso: 500g")

	c, err := svc.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len(), "checkout leaves the cart alone")

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Operations.WithLabelValues(opCheckout, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Operations.WithLabelValues(opCheckout, "error")))
}

func TestService_CheckoutWithoutPhone(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	svc.Shop.Phone = ""

	_, _, err := svc.Add(ctx, "v1", "llavero", nil)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, "v1")
	assert.ErrorIs(t, err, checkout.ErrNoPhone)
}

func TestService_PruneStale(t *testing.T) {
	ctx := context.Background()
	svc, src := newTestService(t)

	_, _, err := svc.Add(ctx, "v1", "llavero", nil)
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, "v1", "fil-pla", nil)
	require.NoError(t, err)
	src.drop("llavero")

	c, err := svc.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len(), "pruning is off by default")

	svc.PruneStale = true
	c, err = svc.Get(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "fil-pla", c.Items()[0].ProductID)

	src.err = ErrCatalogUnavailable
	c, err = svc.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len(), "an unreachable catalog keeps lines")
}

func TestService_ConcurrentAddsForOneVisitor(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Add(ctx, "v1", "llavero", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := svc.Get(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, 20, c.Items()[0].Quantity)
}

func TestCheckoutLines(t *testing.T) {
	lines := CheckoutLines([]LineItem{{
		Name:     "Maceta",
		Price:    money.New(2500),
		Variants: sel("Tamaño", "M"),
		Quantity: 3,
	}})

	require.Len(t, lines, 1)
	assert.Equal(t, []checkout.Attribute{{Name: "Tamaño", Value: "M"}}, lines[0].Attributes)
	assert.Equal(t, int64(7500), lines[0].Subtotal().IntPart())
}
