package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiendapos/internal/config"
	"tiendapos/internal/infra"
	"tiendapos/internal/repository"
	"tiendapos/internal/router"
	"tiendapos/internal/service"
	"tiendapos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in production
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.RunMigrations {
		if err := infra.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Async jobs (verification emails, sale receipts). Handlers are wired here
	// so the pool has access to every infrastructure dependency.
	mailer := infra.NewMailer(cfg)
	saleRepo := repository.NewSaleRepository(db)
	dispatcher := worker.NewDispatcher(rdb)

	pool := worker.NewPool(rdb, cfg.WorkerPoolSize)
	pool.Register(worker.JobEmail, worker.NewEmailWorker(mailer))
	pool.Register(worker.JobReceipt, worker.NewReceiptWorker(saleRepo, mailer, infra.RenderSaleReceipt, cfg.StoreName))
	pool.Start(ctx)

	gatewayCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("qr-gateway"))
	gateway := infra.NewQRGateway(infra.QRGatewayConfig{
		BaseURL:   cfg.QRGatewayURL,
		Username:  cfg.QRGatewayUsername,
		Password:  cfg.QRGatewayPassword,
		SecretKey: cfg.QRGatewaySecretKey,
	}, gatewayCB)

	// Background crons
	cache := infra.NewRedisCache(rdb)
	productRepo := repository.NewProductRepository(db)
	recoSvc := service.NewRecommendationService(repository.NewRecommendationRepository(db), saleRepo, productRepo, cache, cfg.RecommendationCacheTTL())
	paymentSvc := service.NewPaymentService(repository.NewPaymentRepository(db), repository.NewOrderRepository(db), gateway)
	worker.StartRecommendationCron(ctx, recoSvc, cfg.RecommendationInterval())
	worker.StartPaymentSweepCron(ctx, paymentSvc, cfg.PaymentSweepInterval())

	r := router.New(cfg, db, rdb, dispatcher, gateway, gatewayCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("%s backend listening on :%d", cfg.StoreName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
