package server

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sifan077/QuotaLink/config"
	"github.com/sifan077/QuotaLink/internal/app/model"
	"github.com/sifan077/QuotaLink/internal/app/repository"
	"github.com/sifan077/QuotaLink/internal/app/service"
	"github.com/sifan077/QuotaLink/internal/http/middleware"
	"github.com/sifan077/QuotaLink/internal/infra/database"
)

func TestServer_ResolveConsumesClicks(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "links.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	if err := database.AutoMigrate(context.Background(), db, &model.Link{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	links := service.NewLinkService(repository.NewLinkRepository(db), service.Options{TTL: time.Hour})
	limit := 2
	link, err := links.Create(context.Background(), "alice", "https://example.com/s", &limit)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	srv := New(Dependencies{Links: links})
	for i, want := range []int{302, 200, 410} {
		resp, err := srv.app.Test(httptest.NewRequest("GET", "/"+link.Code, nil))
		if err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
		if resp.StatusCode != want {
			t.Fatalf("request %d: expected %d, got %d", i+1, want, resp.StatusCode)
		}
		if resp.Header.Get(middleware.RequestIDHeader) == "" {
			t.Fatalf("request %d: expected request id header", i+1)
		}
	}

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/missing", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
