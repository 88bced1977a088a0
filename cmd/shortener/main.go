package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sifan077/QuotaLink/config"
	"github.com/sifan077/QuotaLink/internal/app/bootstrap"
	"github.com/sifan077/QuotaLink/internal/app/identity"
	"github.com/sifan077/QuotaLink/internal/cli"
	"github.com/sifan077/QuotaLink/internal/infra/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.MustInit(logger.FromAppConfig(cfg.Log, logger.OutputStderr))
	defer func() { _ = logger.Sync() }()

	owner, err := identity.LoadOrCreate(cfg.App.IdentityFile)
	if err != nil {
		log.Fatal("Failed to load identity", zap.Error(err))
	}

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

	shell := cli.NewShell(app.Links, cli.Settings{
		Owner:         owner,
		TTL:           cfg.App.TTL,
		PurgeInterval: cfg.App.PurgeInterval,
		DefaultLimit:  cfg.App.DefaultLimit,
		OpenBrowser:   cfg.App.OpenBrowser,
		Logger:        log.Named("cli"),
	}, os.Stdout)

	app.Start(shell.Notify)
	shell.PrintHelp()

	done := make(chan error, 1)
	go func() {
		done <- cli.Run(ctx, shell, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error("Command loop failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("Interrupted, shutting down")
	}
}
