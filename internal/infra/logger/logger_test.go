package logger

import (
	"testing"

	"github.com/sifan077/QuotaLink/config"
	"go.uber.org/zap/zapcore"
)

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNew_AppliesLevel(t *testing.T) {
	l, err := New(Config{Level: "warn", Encoding: "console", Output: OutputStderr})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("expected info to be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("expected warn to be enabled")
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.LogConfig{Level: "debug", Encoding: "json", Development: true}, OutputStderr)
	if cfg.Level != "debug" || cfg.Encoding != "json" || !cfg.Development || cfg.Output != OutputStderr {
		t.Fatalf("unexpected logger config: %+v", cfg)
	}
}

func TestInit_ReplacesGlobal(t *testing.T) {
	l, err := Init(Config{Level: "error", Encoding: "json"})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if L() != l {
		t.Fatal("expected L to return the initialised logger")
	}
}
