package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront-payments/internal/config"
	"storefront-payments/internal/domain/ports/adapter"
	"storefront-payments/internal/flow"
	"storefront-payments/internal/i18n"
	pg "storefront-payments/internal/infra/db/postgres"
	"storefront-payments/internal/infra/gateway"
	"storefront-payments/internal/infra/logging"
	"storefront-payments/internal/infra/metrics"
	"storefront-payments/internal/infra/observe"
	red "storefront-payments/internal/infra/redis"
	tele "storefront-payments/internal/infra/telegram"
	"storefront-payments/internal/infra/web"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	publisher := red.NewDirectivePublisher(redisClient, cfg.Redis.TTL, logger)
	snapshots := red.NewSnapshotRepo(redisClient, cfg.Server.SessionTTL)

	// ---- Repositories ----
	resolutions := pg.NewResolutionRepo(pool)

	// ---- Payment backend ----
	backend := gateway.NewBackend(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)

	// ---- Translations ----
	catalog, err := i18n.NewCatalog(cfg.I18n.DefaultLocale)
	if err != nil {
		log.Fatalf("i18n: %v", err)
	}

	// ---- Ops notifier ----
	var notifier adapter.OpsNotifier
	if cfg.Notifier.TelegramToken != "" {
		notifier, err = tele.NewOpsNotifier(cfg.Notifier.TelegramToken, cfg.Notifier.ChatID, logger)
		if err != nil {
			log.Fatalf("telegram notifier: %v", err)
		}
	} else {
		notifier = tele.NewNoopNotifier(logger)
	}

	sink := observe.NewSink(snapshots, resolutions, notifier, logger)

	// ---- Session registry ----
	registry := flow.NewRegistry(flow.Deps{
		Config:     &cfg.Payment,
		Backend:    backend,
		Opener:     publisher,
		Navigator:  publisher,
		Advisor:    publisher,
		Translator: catalog,
		Observer:   sink,
		Logger:     logger,
	})

	// ---- HTTP API ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, cfg.Server.SessionTTL)
	srv := web.NewServer(registry, auth, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("api listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api server error")
		}
	}()

	// ---- Metrics ----
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		logger.Info().Int("port", cfg.Server.MetricsPort).Msg("metrics listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	registry.CloseAll()
	cancel()
}
