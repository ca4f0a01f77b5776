package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Storefront/internal/catalog"
	"Storefront/internal/checkout"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrQuantityTooLarge = fmt.Errorf("quantity above %d", MaxQuantity)
)

const pruneLookups = 4

// Service runs cart operations for visitors: restore, mutate, persist. Each
// visitor's cycle is serialized in-process; across processes the store is
// last-write-wins.
type Service struct {
	Repo    *Repository
	Catalog ProductSource
	Shop    checkout.Shop
	Metrics *Metrics
	Log     *zap.Logger

	// PruneStale removes lines whose product the catalog no longer knows
	// when a cart is read.
	PruneStale bool

	locks *keyedMutex
}

func NewService(repo *Repository, src ProductSource, shop checkout.Shop) *Service {
	return &Service{
		Repo:    repo,
		Catalog: src,
		Shop:    shop,
		Log:     zap.NewNop(),
		locks:   newKeyedMutex(),
	}
}

func (s *Service) Get(ctx context.Context, visitor string) (*Cart, error) {
	unlock := s.locks.Lock(visitor)
	defer unlock()

	c, err := s.Repo.Restore(ctx, visitor)
	if err != nil {
		s.Metrics.observe(opRestore, err)
		return nil, err
	}

	if s.PruneStale && c.Len() > 0 {
		if removed := s.pruneStale(ctx, c); removed > 0 {
			s.Log.Info("pruned stale cart lines", zap.String("visitor", visitor), zap.Int("removed", removed))
			err := s.Repo.Persist(ctx, visitor, c)
			s.Metrics.observe(opPrune, err)
			if err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Add resolves the selection against the current catalog entry, prices it
// and adds one unit.
func (s *Service) Add(ctx context.Context, visitor, productID string, raw catalog.Selection) (LineItem, *Cart, error) {
	p, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		s.Metrics.observe(opAdd, err)
		if errors.Is(err, ErrCatalogNotFound) {
			return LineItem{}, nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return LineItem{}, nil, err
	}

	sel, err := catalog.NormalizeSelection(p, raw)
	if err != nil {
		s.Metrics.observe(opAdd, err)
		return LineItem{}, nil, err
	}

	priced := p
	priced.Price = catalog.ResolvePrice(p, sel)

	var (
		item   LineItem
		capped bool
	)
	c, err := s.mutate(ctx, visitor, opAdd, func(c *Cart) bool {
		if cur, ok := c.Get(LineItemID(priced.ID, sel)); ok && cur.Quantity >= MaxQuantity {
			capped = true
			return false
		}
		item = c.Add(priced, sel)
		return true
	})
	if err != nil {
		return LineItem{}, nil, err
	}
	if capped {
		return LineItem{}, nil, ErrQuantityTooLarge
	}
	return item, c, nil
}

func (s *Service) SetQuantity(ctx context.Context, visitor, itemID string, qty int) (*Cart, error) {
	if qty > MaxQuantity {
		s.Metrics.observe(opSetQty, ErrQuantityTooLarge)
		return nil, ErrQuantityTooLarge
	}
	return s.mutate(ctx, visitor, opSetQty, func(c *Cart) bool {
		return c.SetQuantity(itemID, qty)
	})
}

func (s *Service) Remove(ctx context.Context, visitor, itemID string) (*Cart, error) {
	return s.mutate(ctx, visitor, opRemove, func(c *Cart) bool {
		return c.Remove(itemID)
	})
}

func (s *Service) Clear(ctx context.Context, visitor string) (*Cart, error) {
	return s.mutate(ctx, visitor, opClear, func(c *Cart) bool {
		c.Clear()
		return true
	})
}

// Checkout composes the order hand-off; the cart itself is left untouched.
func (s *Service) Checkout(ctx context.Context, visitor string) (checkout.Order, error) {
	c, err := s.Get(ctx, visitor)
	if err != nil {
		s.Metrics.observe(opCheckout, err)
		return checkout.Order{}, err
	}

	order, err := checkout.Compose(s.Shop, CheckoutLines(c.Items()))
	s.Metrics.observe(opCheckout, err)
	if err != nil {
		return checkout.Order{}, err
	}
	s.Metrics.checkout(c.Len())
	return order, nil
}

// mutate persists only when fn reports a change.
func (s *Service) mutate(ctx context.Context, visitor, op string, fn func(*Cart) bool) (*Cart, error) {
	unlock := s.locks.Lock(visitor)
	defer unlock()

	c, err := s.Repo.Restore(ctx, visitor)
	if err != nil {
		s.Metrics.observe(op, err)
		return nil, err
	}

	if fn(c) {
		if err := s.Repo.Persist(ctx, visitor, c); err != nil {
			s.Metrics.observe(op, err)
			return nil, err
		}
	}
	s.Metrics.observe(op, nil)
	return c, nil
}

// pruneStale keeps lines when the catalog cannot answer; only an explicit
// not-found removes a line.
func (s *Service) pruneStale(ctx context.Context, c *Cart) int {
	var ids []string
	seen := map[string]bool{}
	for _, it := range c.Items() {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	gone := make([]bool, len(ids))
	var g errgroup.Group
	g.SetLimit(pruneLookups)
	for i, id := range ids {
		g.Go(func() error {
			_, err := s.Catalog.GetProduct(ctx, id)
			gone[i] = errors.Is(err, ErrCatalogNotFound)
			return nil
		})
	}
	_ = g.Wait()

	drop := map[string]bool{}
	for i, id := range ids {
		if gone[i] {
			drop[id] = true
		}
	}
	return c.Prune(func(it LineItem) bool { return !drop[it.ProductID] })
}

func CheckoutLines(items []LineItem) []checkout.Line {
	lines := make([]checkout.Line, 0, len(items))
	for _, it := range items {
		attrs := make([]checkout.Attribute, 0, len(it.Variants))
		for _, v := range it.Variants {
			attrs = append(attrs, checkout.Attribute{Name: v.Name, Value: v.Value})
		}
		lines = append(lines, checkout.Line{
			Name:       it.Name,
			Attributes: attrs,
			Quantity:   it.Quantity,
			UnitPrice:  it.Price,
		})
	}
	return lines
}
