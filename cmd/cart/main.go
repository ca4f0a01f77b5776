package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/checkout"
	"Storefront/internal/config"
	"Storefront/internal/visitor"
	"Storefront/pkg/kit"
)

func main() {
	const service = "cart"

	cfg, err := config.Load(service)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := kit.NewLogger(service, logOptions(cfg.Log))
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := cart.OpenStore(openCtx, cart.StoreConfig{
		Driver:        cfg.Store.Driver,
		RedisAddr:     cfg.Store.Redis.Addr,
		RedisPassword: cfg.Store.Redis.Password,
		RedisDB:       cfg.Store.Redis.DB,
		RedisTTL:      cfg.Store.Redis.TTL,
		PostgresDSN:   cfg.Store.Postgres.DSN,
	})
	cancel()
	if err != nil {
		log.Fatal("open cart store failed", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() { _ = store.Close() }()
	log.Info("cart store ready", zap.String("driver", cfg.Store.Driver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := cart.NewService(
		cart.NewRepository(store, cfg.Cart.KeyPrefix, log),
		cart.NewCatalogClient(cfg.Cart.CatalogURL),
		checkout.Shop{Name: cfg.Shop.Name, Phone: cfg.Shop.Phone, BaseURL: cfg.Shop.MessagingURL},
	)
	svc.Log = log
	svc.Metrics = cart.NewMetrics(reg)
	svc.PruneStale = cfg.Cart.PruneStale

	h := cart.NewHandler(&cart.Server{Service: svc, Log: log}, cart.HTTPDeps{
		HTTPDeps: kit.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       reg,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
		},
		Sessions: visitor.NewTokenMaker(cfg.Cart.SessionSecret),
		Cookie: visitor.CookieConfig{
			Name:   cfg.Cart.CookieName,
			TTL:    cfg.Cart.SessionTTL,
			Secure: cfg.Cart.CookieSecure,
		},
		RateLimit:  cfg.Cart.RateLimit,
		RateWindow: cfg.Cart.RateWindow,
	})

	if err := kit.RunHTTPServer(ctx, cfg.HTTP.Addr(), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func logOptions(c config.LogConfig) kit.LogOptions {
	return kit.LogOptions{
		Level:      c.Level,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}
