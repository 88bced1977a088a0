package natsclient

import (
	"strings"
	"testing"

	"github.com/sifan077/QuotaLink/config"
	"github.com/sifan077/QuotaLink/internal/app/model"
)

func TestBuildURL(t *testing.T) {
	if got := buildURL(config.NATSConfig{}); got != "nats://localhost:4222" {
		t.Fatalf("unexpected default url %q", got)
	}
	if got := buildURL(config.NATSConfig{Host: "broker", Port: 4333}); got != "nats://broker:4333" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestLinkStreamConfig_CoversEventSubjects(t *testing.T) {
	cfg := LinkStreamConfig()
	if cfg.Name != model.LinkStreamName {
		t.Fatalf("unexpected stream name %q", cfg.Name)
	}

	prefix := strings.TrimSuffix(cfg.Subjects[0], ">")
	for _, typ := range []string{model.EventLinkCreated, model.EventLinkClicked, model.EventLinksPurged} {
		subject := model.LinkEvent{Type: typ}.Subject()
		if !strings.HasPrefix(subject, prefix) {
			t.Fatalf("subject %q is outside stream subjects %v", subject, cfg.Subjects)
		}
	}
}
