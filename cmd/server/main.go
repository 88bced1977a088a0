package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sifan077/QuotaLink/config"
	"github.com/sifan077/QuotaLink/internal/app/bootstrap"
	appserver "github.com/sifan077/QuotaLink/internal/app/server"
	"github.com/sifan077/QuotaLink/internal/infra/logger"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.MustInit(logger.FromAppConfig(cfg.Log, logger.OutputStdout))
	defer func() { _ = logger.Sync() }()

	log.Info("Configuration loaded successfully",
		zap.String("db_driver", cfg.Database.Driver),
		zap.Duration("ttl", cfg.App.TTL),
		zap.Duration("purge_interval", cfg.App.PurgeInterval),
		zap.Int("default_limit", cfg.App.DefaultLimit),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.Bool("prometheus_enabled", cfg.Prometheus.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to start link service", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("Shutdown finished with errors", zap.Error(err))
		}
	}()
	app.Start(nil)

	server := appserver.New(appserver.Dependencies{
		Logger: log.Named("http"),
		Links:  app.Links,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to stop HTTP server", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	log.Info("Starting HTTP server", zap.String("addr", addr))
	if err := server.Listen(addr); err != nil {
		log.Error("Fiber server exited", zap.Error(err))
	}
}
