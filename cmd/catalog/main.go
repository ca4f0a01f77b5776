package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/checkout"
	"Storefront/internal/config"
	"Storefront/pkg/kit"
)

func main() {
	const service = "catalog"

	cfg, err := config.Load(service)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := kit.NewLogger(service, logOptions(cfg.Log))
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// A failed load is not fatal: the service stays up, reports not ready
	// and answers 503 until restarted with a readable source.
	store := catalog.NewStore()
	_ = store.Load(ctx, catalog.NewLoader(cfg.Catalog.Source), log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &catalog.Server{
		Store: store,
		Shop:  checkout.Shop{Name: cfg.Shop.Name, Phone: cfg.Shop.Phone, BaseURL: cfg.Shop.MessagingURL},
		Log:   log,
	}
	h := catalog.NewHandler(s, kit.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
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
