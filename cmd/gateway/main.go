package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/internal/config"
	"Storefront/internal/gateway"
	"Storefront/pkg/kit"
)

func main() {
	const service = "gateway"

	cfg, err := config.Load(service)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := kit.NewLogger(service, kit.LogOptions{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	h, err := gateway.NewHandler(
		gateway.Deps{
			CatalogURL: cfg.Gateway.CatalogURL,
			CartURL:    cfg.Gateway.CartURL,
		},
		kit.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       reg,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
		},
	)
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(context.Background(), cfg.HTTP.Addr(), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
