package cli

import (
	"context"
	"path/filepath"
	"testing"

	"quiz-performance-service/internal/config"
)

func TestConfigureLogger(t *testing.T) {
	for _, tc := range []struct{ level, format string }{{"", ""}, {"debug", "json"}, {"WARN", "text"}, {"error", ""}} {
		if err := configureLogger(tc.level, tc.format); err != nil {
			t.Fatalf("configure %q/%q: %v", tc.level, tc.format, err)
		}
	}
	if err := configureLogger("loud", ""); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
	if err := configureLogger("info", "xml"); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func TestLoadConfigToleratesMissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults, got %v", err)
	}
	if cfg.Postgres.URL != "" || cfg.Redis.Addr != "" {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestSampleServiceServesDemoHistory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	service, cleanup, err := buildService(ctx, configWithoutBackends())
	defer cleanup()
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	summary, err := service.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Stats.TotalAttempts != 3 || len(summary.Groups) != 2 {
		t.Fatalf("unexpected demo summary %+v", summary.Stats)
	}
}

func configWithoutBackends() config.Config {
	return config.Config{}
}
