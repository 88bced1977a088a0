package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sifan077/QuotaLink/config"
	"github.com/sifan077/QuotaLink/internal/app/model"
	"go.uber.org/zap"
)

// PurgeLockKey is the shared key used when several processes sweep one store.
const PurgeLockKey = "quotalink:purge-lock"

// Purger removes links whose TTL has elapsed.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Locker grants a time-bounded lock; false means another holder has it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// SweeperDeps wires an ExpirySweeper. Only Store is required.
type SweeperDeps struct {
	Logger   *zap.Logger
	Store    Purger
	Interval time.Duration
	Locker   Locker
	Events   EventPublisher
	Metrics  MetricsRecorder
	// Notify is called with the number of links removed by a sweep, when non-zero.
	Notify func(removed int64)
	Clock  func() time.Time
}

// ExpirySweeper periodically deletes expired links.
type ExpirySweeper struct {
	logger   *zap.Logger
	store    Purger
	interval time.Duration
	locker   Locker
	events   EventPublisher
	metrics  MetricsRecorder
	notify   func(removed int64)
	now      func() time.Time

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewExpirySweeper creates a new expiry sweeper.
func NewExpirySweeper(deps SweeperDeps) *ExpirySweeper {
	s := &ExpirySweeper{
		logger:   deps.Logger,
		store:    deps.Store,
		interval: deps.Interval,
		locker:   deps.Locker,
		events:   deps.Events,
		metrics:  deps.Metrics,
		notify:   deps.Notify,
		now:      deps.Clock,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.interval <= 0 {
		s.interval = config.DefaultPurgeInterval
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = NopMetrics{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Start begins the periodic sweep.
func (s *ExpirySweeper) Start() {
	if s.started.CompareAndSwap(false, true) {
		go s.run()
	}
}

// Stop ends the sweep and waits for an in-flight purge to return.
func (s *ExpirySweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *ExpirySweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("failed to purge expired links", zap.Error(err))
			}
			cancel()
		case <-s.stopChan:
			s.logger.Info("expiry sweeper stopped")
			return
		}
	}
}

// SweepOnce runs a single purge and reports how many links it removed.
// It returns zero without touching the store when another process holds the lock.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (int64, error) {
	if s.locker != nil {
		acquired, err := s.locker.TryLock(ctx, PurgeLockKey, s.interval)
		if err != nil {
			// Purge is idempotent; sweeping without the lock is safe.
			s.logger.Warn("purge lock unavailable, sweeping anyway", zap.Error(err))
		} else if !acquired {
			s.logger.Debug("purge lock held elsewhere, skipping sweep")
			return 0, nil
		}
	}

	now := s.now()
	removed, err := s.store.PurgeExpired(ctx, now)
	if err != nil {
		return 0, storageError("purge expired", err)
	}
	if removed == 0 {
		return 0, nil
	}

	s.logger.Info("deleted expired links",
		zap.Int64("count", removed),
		zap.Time("now", now),
	)
	s.metrics.LinksPurged(removed)
	if err := s.events.Publish(ctx, model.LinkEvent{Type: model.EventLinksPurged, Count: removed}); err != nil {
		s.logger.Warn("failed to publish purge event", zap.Error(err))
	}
	if s.notify != nil {
		s.notify(removed)
	}
	return removed, nil
}
