package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sifan077/QuotaLink/internal/app/model"
)

type fakeLocker struct {
	acquired bool
	err      error
	keys     []string
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.acquired, l.err
}

type countingMetrics struct {
	NopMetrics
	purged int64
}

func (m *countingMetrics) LinksPurged(n int64) { m.purged += n }

func TestExpirySweeper_SweepOnceRemovesExpired(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	svc := NewLinkService(repo, Options{TTL: time.Minute, Clock: fixedClock(baseTime)})
	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, "alice", "https://example.com", nil); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}
	keep := NewLinkService(repo, Options{TTL: time.Hour, Clock: fixedClock(baseTime)})
	kept, err := keep.Create(ctx, "alice", "https://example.com/keep", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	var notified int64
	metrics := &countingMetrics{}
	events := &recordingPublisher{}
	sweeper := NewExpirySweeper(SweeperDeps{
		Store:   repo,
		Metrics: metrics,
		Events:  events,
		Notify:  func(removed int64) { notified = removed },
		Clock:   fixedClock(baseTime.Add(2 * time.Minute)),
	})

	removed, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce returned error: %v", err)
	}
	if removed != 3 || notified != 3 || metrics.purged != 3 {
		t.Fatalf("expected 3 removed/notified/counted, got %d/%d/%d", removed, notified, metrics.purged)
	}
	if types := events.types(); len(types) != 1 || types[0] != model.EventLinksPurged {
		t.Fatalf("expected one purge event, got %v", types)
	}

	notified = 0
	removed, err = sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("second SweepOnce returned error: %v", err)
	}
	if removed != 0 || notified != 0 {
		t.Fatalf("expected second sweep to be a no-op, got removed=%d notified=%d", removed, notified)
	}

	links, err := svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(links) != 1 || links[0].Code != kept.Code {
		t.Fatalf("expected only the unexpired link to remain, got %+v", links)
	}
}

func TestExpirySweeper_SkipsWhenLockHeld(t *testing.T) {
	purges := 0
	repo := &mockLinkRepository{
		purgeFn: func(ctx context.Context, now time.Time) (int64, error) {
			purges++
			return 1, nil
		},
	}
	locker := &fakeLocker{acquired: false}

	sweeper := NewExpirySweeper(SweeperDeps{Store: repo, Locker: locker})
	removed, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce returned error: %v", err)
	}
	if removed != 0 || purges != 0 {
		t.Fatalf("expected skipped sweep, got removed=%d purges=%d", removed, purges)
	}
	if len(locker.keys) != 1 || locker.keys[0] != PurgeLockKey {
		t.Fatalf("expected lock attempt on %s, got %v", PurgeLockKey, locker.keys)
	}
}

func TestExpirySweeper_SweepsWhenLockUnavailable(t *testing.T) {
	repo := &mockLinkRepository{
		purgeFn: func(ctx context.Context, now time.Time) (int64, error) {
			return 2, nil
		},
	}

	sweeper := NewExpirySweeper(SweeperDeps{
		Store:  repo,
		Locker: &fakeLocker{err: errors.New("redis down")},
	})
	removed, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce returned error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
}

func TestExpirySweeper_PurgeError(t *testing.T) {
	cause := errors.New("locked")
	repo := &mockLinkRepository{
		purgeFn: func(ctx context.Context, now time.Time) (int64, error) {
			return 0, cause
		},
	}

	sweeper := NewExpirySweeper(SweeperDeps{Store: repo})
	if _, err := sweeper.SweepOnce(context.Background()); !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("expected ErrStorage wrapping cause, got %v", err)
	}
}

func TestExpirySweeper_StartStop(t *testing.T) {
	var purges atomic.Int32
	repo := &mockLinkRepository{
		purgeFn: func(ctx context.Context, now time.Time) (int64, error) {
			purges.Add(1)
			return 0, nil
		},
	}

	sweeper := NewExpirySweeper(SweeperDeps{Store: repo, Interval: 10 * time.Millisecond})
	sweeper.Start()

	deadline := time.Now().Add(2 * time.Second)
	for purges.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	sweeper.Stop()
	sweeper.Stop()

	if purges.Load() < 2 {
		t.Fatalf("expected at least two ticks, got %d", purges.Load())
	}

	after := purges.Load()
	time.Sleep(30 * time.Millisecond)
	if purges.Load() != after {
		t.Fatal("expected no sweeps after Stop")
	}
}

func TestExpirySweeper_StopWithoutStart(t *testing.T) {
	sweeper := NewExpirySweeper(SweeperDeps{Store: &mockLinkRepository{}})
	sweeper.Stop()
}
