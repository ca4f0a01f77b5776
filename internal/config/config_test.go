package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

// chdir isolates the test from a config.yaml in the package directory.
func chdir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("catalog")
	require.NoError(t, err)

	assert.Equal(t, ":8082", cfg.HTTP.Addr())
	assert.Equal(t, "data/products.json", cfg.Catalog.Source)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "https://wa.me", cfg.Shop.MessagingURL)
}

func TestLoad_CartNeedsSecret(t *testing.T) {
	chdir(t)

	_, err := Load("cart")
	assert.ErrorIs(t, err, ErrInvalid)

	t.Setenv("CART_SESSION_SECRET", "short")
	_, err = Load("cart")
	assert.ErrorIs(t, err, ErrInvalid)

	t.Setenv("CART_SESSION_SECRET", secret)
	cfg, err := Load("cart")
	require.NoError(t, err)
	assert.Equal(t, ":8083", cfg.HTTP.Addr())
	assert.Equal(t, 720*time.Hour, cfg.Cart.SessionTTL)
	assert.Equal(t, time.Minute, cfg.Cart.RateWindow)
}

func TestLoad_Env(t *testing.T) {
	chdir(t)
	t.Setenv("PORT", "9999")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("STORE_REDIS_ADDR", "redis:6379")
	t.Setenv("STORE_REDIS_TTL", "2h")
	t.Setenv("SHOP_PHONE", "56911111111")
	t.Setenv("CART_PRUNE_STALE", "true")
	t.Setenv("CART_SESSION_SECRET", secret)

	cfg, err := Load("cart")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.HTTP.Port)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, "56911111111", cfg.Shop.Phone)
	assert.True(t, cfg.Cart.PruneStale)
}

func TestLoad_File(t *testing.T) {
	dir := chdir(t)

	yaml := `
shop:
  name: MOLD3D
  phone: "56900000000"
gateway:
  catalog_url: http://catalog:8082
  cart_url: http://cart:8083
metrics:
  enabled: true
  token: scrape
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("GATEWAY_CART_URL", "http://cart-override:8083")

	cfg, err := Load("gateway")
	require.NoError(t, err)

	assert.Equal(t, "MOLD3D", cfg.Shop.Name)
	assert.Equal(t, "56900000000", cfg.Shop.Phone)
	assert.Equal(t, "http://catalog:8082", cfg.Gateway.CatalogURL)
	assert.Equal(t, "http://cart-override:8083", cfg.Gateway.CartURL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":8080", cfg.HTTP.Addr())
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	chdir(t)
	t.Setenv("CONFIG_FILE", "missing.yaml")

	_, err := Load("catalog")
	assert.Error(t, err)
}

func TestValidate_MetricsNeedToken(t *testing.T) {
	chdir(t)
	t.Setenv("METRICS_ENABLED", "true")

	_, err := Load("catalog")
	assert.ErrorIs(t, err, ErrInvalid)
}
