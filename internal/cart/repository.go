package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

const defaultKeyPrefix = "cart"

// Repository maps a visitor to a fixed store key and (de)serializes carts.
type Repository struct {
	Store  Store
	Prefix string
	Log    *zap.Logger
}

func NewRepository(store Store, prefix string, log *zap.Logger) *Repository {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{Store: store, Prefix: prefix, Log: log}
}

func (r *Repository) Key(visitor string) string {
	return r.Prefix + ":" + visitor
}

// Restore never fails on bad data: a missing, corrupt or foreign value is an
// empty cart, and structurally invalid lines are dropped. Store errors are
// returned so an unreachable store is not mistaken for an empty cart.
func (r *Repository) Restore(ctx context.Context, visitor string) (*Cart, error) {
	key := r.Key(visitor)

	raw, found, err := r.Store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !found || len(raw) == 0 {
		return New(nil), nil
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		r.Log.Warn("discarding unreadable cart", zap.String("key", key), zap.Error(err))
		return New(nil), nil
	}

	kept := items[:0]
	for _, it := range items {
		if it.valid() {
			kept = append(kept, it)
		}
	}
	if dropped := len(items) - len(kept); dropped > 0 {
		r.Log.Warn("dropped invalid cart lines", zap.String("key", key), zap.Int("dropped", dropped))
	}
	return New(kept), nil
}

func (r *Repository) Persist(ctx context.Context, visitor string, c *Cart) error {
	payload, err := json.Marshal(c.Items())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.Store.Save(ctx, r.Key(visitor), payload); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
