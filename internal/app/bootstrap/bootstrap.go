// Package bootstrap assembles the link service and its optional
// infrastructure from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/QuotaLink/config"
	"github.com/sifan077/QuotaLink/internal/app/model"
	"github.com/sifan077/QuotaLink/internal/app/repository"
	"github.com/sifan077/QuotaLink/internal/app/service"
	"github.com/sifan077/QuotaLink/internal/infra/database"
	infraNATS "github.com/sifan077/QuotaLink/internal/infra/nats"
	infraPrometheus "github.com/sifan077/QuotaLink/internal/infra/prometheus"
	infraRedis "github.com/sifan077/QuotaLink/internal/infra/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the wired link service and everything that must be closed.
type App struct {
	Config *config.Config
	Links  service.LinkService

	log     *zap.Logger
	db      *gorm.DB
	repo    repository.LinkRepository
	redis   *redis.Client
	nats    *nats.Conn
	events  service.EventPublisher
	metrics service.MetricsRecorder
	reg     *prometheus.Registry

	sweeper    *service.ExpirySweeper
	promServer *http.Server
}

// New opens storage and connects the optional backends enabled in cfg.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, log: log}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := database.AutoMigrate(ctx, db, &model.Link{}); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.repo = repository.NewLinkRepository(db)
	log.Info("link store ready", zap.String("driver", cfg.Database.Driver))

	if err := a.connectOptional(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Links = service.NewLinkService(a.repo, service.Options{
		TTL:          cfg.App.TTL,
		DefaultLimit: cfg.App.DefaultLimit,
		CodeLength:   cfg.App.CodeLength,
		Logger:       log.Named("links"),
		Events:       a.events,
		Metrics:      a.metrics,
	})
	return a, nil
}

func (a *App) connectOptional(ctx context.Context) error {
	cfg := a.Config

	if cfg.Redis.Enabled {
		client, err := infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.redis = client
		a.log.Info("connected to redis", zap.String("addr", infraRedis.Addr(cfg.Redis)))
	}

	if cfg.NATS.Enabled {
		conn, js, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			return err
		}
		a.nats = conn
		if err := infraNATS.EnsureLinkStream(js); err != nil {
			return err
		}
		a.events = service.NewNATSPublisher(js)
		a.log.Info("connected to nats", zap.String("stream", model.LinkStreamName))
	}

	if cfg.Prometheus.Enabled {
		a.reg = prometheus.NewRegistry()
		a.reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.metrics = infraPrometheus.NewLinkMetrics(a.reg)
	}
	return nil
}

// Start launches the expiry sweeper and, when enabled, the metrics server.
// notify receives the count of each non-empty purge and may be nil.
func (a *App) Start(notify func(removed int64)) {
	deps := service.SweeperDeps{
		Logger:   a.log.Named("sweeper"),
		Store:    a.repo,
		Interval: a.Config.App.PurgeInterval,
		Events:   a.events,
		Metrics:  a.metrics,
		Notify:   notify,
	}
	if a.redis != nil {
		deps.Locker = infraRedis.NewLocker(a.redis)
	}
	a.sweeper = service.NewExpirySweeper(deps)
	a.sweeper.Start()

	if a.reg != nil {
		a.promServer = infraPrometheus.NewServer(a.Config.Prometheus, a.reg)
		go func() {
			a.log.Info("starting prometheus metrics server", zap.String("addr", a.promServer.Addr))
			if err := a.promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
	}
}

// Close stops background work and releases connections.
func (a *App) Close() error {
	var errs []error

	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.promServer != nil {
		if err := a.promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, fmt.Errorf("close metrics server: %w", err))
		}
	}
	if a.nats != nil {
		if err := a.nats.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("drain nats: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
