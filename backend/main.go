package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pharmapos/m/internal/api"
	"pharmapos/m/internal/auth"
	"pharmapos/m/internal/catalog"
	"pharmapos/m/internal/clients"
	"pharmapos/m/internal/clock"
	"pharmapos/m/internal/config"
	"pharmapos/m/internal/dashboard"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/jobs"
	"pharmapos/m/internal/ledger"
	"pharmapos/m/internal/logger"
	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/sales"
	"pharmapos/m/internal/seed"
	"pharmapos/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.Alerts.Timezone)
	if err != nil {
		return err
	}
	clk := clock.System{Location: loc}
	st := store.New(db)

	tokens := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	authSvc := auth.NewService(st, tokens, log)
	if err := authSvc.Bootstrap(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	if cfg.Catalog.SeedPath != "" {
		if _, err := seed.LoadProductsFile(ctx, st, cfg.Catalog.SeedPath, log.Named("seed")); err != nil {
			log.Warn("product catalog not seeded", zap.String("path", cfg.Catalog.SeedPath), zap.Error(err))
		}
	}

	lots := ledger.New(st, clk, log)
	recorder := sales.New(st, lots, clk, log)

	watch := jobs.NewExpiryWatch(lots, cfg.Alerts.ExpiryDays, loc, log)
	if err := watch.Start(cfg.Alerts.Schedule); err != nil {
		return err
	}

	handler := api.New(api.Services{
		Catalog:    catalog.New(st, clk, log),
		Ledger:     lots,
		Sales:      recorder,
		Clients:    clients.New(st, clk, log),
		Auth:       authSvc,
		Tokens:     tokens,
		Dashboard:  dashboard.New(st, recorder, clk, cfg.Alerts.ExpiryDays),
		ExpiryDays: cfg.Alerts.ExpiryDays,
		Location:   loc,
	}, log, cfg.App.CORSOrigins...)

	srv := &http.Server{
		Addr:              ":" + cfg.App.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("pharmacy POS server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	watch.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
