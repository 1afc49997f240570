package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"coursehub-backend-go/internal/config"
	"coursehub-backend-go/internal/db"
	httpapi "coursehub-backend-go/internal/http"
	"coursehub-backend-go/internal/logger"
	"coursehub-backend-go/internal/migrations"
	"coursehub-backend-go/internal/services"
	"coursehub-backend-go/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, cleanupLogs, err := logger.New(logger.Options{
		Mode:          cfg.LogMode,
		Dir:           cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
	})
	if err != nil {
		// Fall back to console only; the log dir is not required to serve.
		log, cleanupLogs, _ = logger.New(logger.Options{Mode: cfg.LogMode})
		log.Warnw("log file setup failed", "dir", cfg.LogDir, "error", err)
	}
	defer cleanupLogs()

	if err := run(cfg, log); err != nil {
		log.Errorw("server stopped", "error", err)
		cleanupLogs()
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(cfg config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.SeedData {
		seeded, err := store.Seed(ctx, st)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if seeded > 0 {
			log.Infow("sample catalog seeded", "courses", seeded)
		}
	}

	history := services.NewMetricsHistory(cfg.MetricsHistorySize)
	hub := services.NewMetricsHub(log)
	server := httpapi.NewServer(st, cfg, history, hub, log)
	if err := server.Uploads.EnsureDir(); err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("listening", "addr", cfg.Addr(), "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		interval := time.Duration(cfg.MetricsSampleSeconds) * time.Second
		return services.RunSampler(gctx, interval, cfg.MetricsDiskPath, history, hub, log)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (store.Store, error) {
	if cfg.StoreDriver != config.DriverPostgres {
		return store.NewMemoryStore(), nil
	}
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	applied, err := migrations.Apply(ctx, database)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	for _, version := range applied {
		log.Infow("migration applied", "name", version)
	}
	return store.NewPostgresStore(database), nil
}
