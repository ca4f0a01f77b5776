package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRepository_RoundTripKeepsOrderAndSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemStore(), "", zap.NewNop())

	c := New(nil)
	c.Add(product("b", 2500), sel("Peso", "1kg", "Color", "Rojo"))
	c.Add(product("a", 1000), nil)
	require.NoError(t, repo.Persist(ctx, "v1", c))

	got, err := repo.Restore(ctx, "v1")
	require.NoError(t, err)

	want := c.Items()
	items := got.Items()
	require.Len(t, items, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, items[i].ID)
		assert.Equal(t, want[i].Name, items[i].Name)
		assert.Equal(t, want[i].Quantity, items[i].Quantity)
		assert.True(t, want[i].Price.Equal(items[i].Price))
		assert.Equal(t, len(want[i].Variants), len(items[i].Variants))
		for j := range want[i].Variants {
			assert.Equal(t, want[i].Variants[j], items[i].Variants[j])
		}
	}
	assert.Equal(t, "Peso", items[0].Variants[0].Name)
	assert.Equal(t, "cart:v1", repo.Key("v1"))
}

func TestRepository_MissingIsEmpty(t *testing.T) {
	got, err := NewRepository(NewMemStore(), "", nil).Restore(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestRepository_CorruptValueIsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, raw := range map[string]string{
		"truncated": `[{"cartItemId":"p1-"`,
		"foreign":   `{"hello":"world"}`,
		"garbage":   `not json at all`,
	} {
		t.Run(name, func(t *testing.T) {
			store := NewMemStore()
			require.NoError(t, store.Save(ctx, "cart:v1", []byte(raw)))

			got, err := NewRepository(store, "", zap.NewNop()).Restore(ctx, "v1")
			require.NoError(t, err)
			assert.Equal(t, 0, got.Len())
		})
	}
}

func TestRepository_DropsInvalidLines(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	raw := `[
		{"cartItemId":"a-","productId":"a","name":"A","price":100,"variants":{},"quantity":2},
		{"cartItemId":"b-","productId":"b","name":"B","price":100,"variants":{},"quantity":0},
		{"cartItemId":"","productId":"c","name":"C","price":100,"variants":{},"quantity":1},
		{"cartItemId":"d-","productId":"d","name":"D","price":100,"variants":{},"quantity":9223372036854775807}
	]`
	require.NoError(t, store.Save(ctx, "cart:v1", []byte(raw)))

	got, err := NewRepository(store, "", zap.NewNop()).Restore(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "a-", got.Items()[0].ID)
}

type failingStore struct{ MemStore }

var errStoreDown = errors.New("store down")

func (*failingStore) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errStoreDown
}

func TestRepository_StoreErrorPropagates(t *testing.T) {
	_, err := NewRepository(&failingStore{}, "", zap.NewNop()).Restore(context.Background(), "v1")
	assert.ErrorIs(t, err, errStoreDown)
}
