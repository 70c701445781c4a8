package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"cargoledger/internal/auth"
	"cargoledger/internal/billing"
	"cargoledger/internal/config"
	"cargoledger/internal/domain"
	"cargoledger/internal/fxrate/redis"
	fxs3 "cargoledger/internal/fxrate/s3"
	"cargoledger/internal/fxrate/static"
	"cargoledger/internal/handler"
	"cargoledger/internal/logger"
	"cargoledger/internal/port"
	"cargoledger/internal/repository/memory"
	"cargoledger/internal/repository/postgres"
	"cargoledger/internal/router"
	"cargoledger/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	var (
		db       *sqlx.DB
		invRepo  port.InvoiceRepository
		rateRepo port.RateTableRepository
		health   *handler.HealthHandler
	)
	if cfg.DB.Host != "" {
		db, err = postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		invRepo = postgres.NewInvoiceRepo(db)
		rateRepo = postgres.NewRateTableRepo(db)
		health = handler.NewHealthHandler(db)
	} else {
		logg.Warn("no database configured, using in-memory storage")
		invRepo = memory.NewInvoiceRepo()
		rateRepo = memory.NewRateTableRepo()
		health = handler.NewHealthHandler(nil)
	}

	if err := seedRateTable(ctx, rateRepo, cfg.Billing.DefaultRates, logg); err != nil {
		return err
	}

	provider, err := newSnapshotProvider(ctx, &cfg.FX)
	if err != nil {
		return fmt.Errorf("failed to initialize rate snapshot provider: %w", err)
	}
	logg.Info("rate snapshot provider ready", zap.String("provider", cfg.FX.Provider))

	// Initialize services
	sink := billing.NewLogSink(logg)
	currencySvc := service.NewCurrencyService(provider, billing.NewConverter(sink, nil), cfg.FX.MaxSnapshotAge, nil, logg)
	rateSvc := service.NewRateService(rateRepo, currencySvc, billing.NewFeeCalculator(sink), nil, logg)
	invoiceSvc := service.NewInvoiceService(invRepo, rateSvc, currencySvc, billing.NewLedger(sink), cfg.Billing, nil, logg)

	// Setup router
	r := router.Setup(auth.NewHMACVerifier(cfg.JWT), router.Handlers{
		Fee:      handler.NewFeeHandler(rateSvc),
		Invoice:  handler.NewInvoiceHandler(invoiceSvc),
		Currency: handler.NewCurrencyHandler(currencySvc),
		Rate:     handler.NewRateHandler(rateSvc),
		Health:   health,
	}, cfg.CORS.AllowedOrigins, logg)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("server starting", zap.String("addr", cfg.Server.Port), zap.String("env", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logg.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// seedRateTable publishes the configured rate table when none is in effect.
func seedRateTable(ctx context.Context, repo port.RateTableRepository, rates config.RateTableConfig, logg *zap.Logger) error {
	_, err := repo.GetCurrent(ctx, time.Now())
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrRateTableMissing) {
		return fmt.Errorf("failed to load rate table: %w", err)
	}

	rt := service.RateTableFromConfig(rates)
	if err := billing.ValidateRateTable(&rt); err != nil {
		return fmt.Errorf("configured rate table: %w", err)
	}
	if err := repo.Create(ctx, &rt); err != nil {
		return fmt.Errorf("failed to seed rate table: %w", err)
	}
	logg.Info("seeded rate table from configuration", zap.String("base_currency", rt.BaseCurrency))
	return nil
}

func newSnapshotProvider(ctx context.Context, cfg *config.FXConfig) (port.RateSnapshotProvider, error) {
	switch cfg.Provider {
	case "redis":
		client, err := redis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return redis.NewProvider(client, cfg.RedisKey), nil
	case "s3":
		client, err := fxs3.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return fxs3.NewProvider(client, cfg.S3Bucket, cfg.S3Key), nil
	default:
		return static.NewProvider(cfg.Base, cfg.StaticRates)
	}
}
