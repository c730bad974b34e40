package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"poll too small", func(c *Config) { c.Tracker.PollInterval = 500 * time.Millisecond }, true},
		{"poll too large", func(c *Config) { c.Tracker.PollInterval = time.Hour }, true},
		{"negative idle", func(c *Config) { c.Tracker.IdleThreshold = -time.Second }, true},
		{"gap below poll", func(c *Config) { c.Tracker.MaxGap = time.Second }, true},
		{"zero flush timeout", func(c *Config) { c.Tracker.FlushTimeout = 0 }, true},
		{"bad zone", func(c *Config) { c.Report.TimeZone = "Mars/Olympus" }, true},
		{"utc zone", func(c *Config) { c.Report.TimeZone = "UTC" }, false},
		{"negative goal", func(c *Config) { c.Report.DailyGoalMinutes = -1 }, true},
		{"bad port", func(c *Config) { c.Web.Port = 0 }, true},
		{"empty host", func(c *Config) { c.Web.Host = "" }, true},
		{"public host", func(c *Config) { c.Web.Host = "0.0.0.0" }, true},
		{"localhost", func(c *Config) { c.Web.Host = "localhost" }, false},
		{"ipv6 loopback", func(c *Config) { c.Web.Host = "::1" }, false},
		{"empty pid file", func(c *Config) { c.Daemon.PIDFile = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ACTIVITY_TRACKER_DB_PATH", "/tmp/test.db")
	t.Setenv("ACTIVITY_TRACKER_POLL_INTERVAL", "30")
	t.Setenv("ACTIVITY_TRACKER_IDLE_THRESHOLD", "120")
	t.Setenv("ACTIVITY_TRACKER_MAX_GAP", "600")
	t.Setenv("ACTIVITY_TRACKER_TIMEZONE", "UTC")
	t.Setenv("ACTIVITY_TRACKER_DAILY_GOAL", "240")
	t.Setenv("ACTIVITY_TRACKER_SEED_CATEGORIES", "false")
	t.Setenv("ACTIVITY_TRACKER_WEB_PORT", "9999")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Tracker.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v", cfg.Tracker.PollInterval)
	}
	if cfg.Tracker.IdleThreshold != 2*time.Minute {
		t.Errorf("IdleThreshold = %v", cfg.Tracker.IdleThreshold)
	}
	if cfg.Tracker.MaxGap != 10*time.Minute {
		t.Errorf("MaxGap = %v", cfg.Tracker.MaxGap)
	}
	if cfg.Report.TimeZone != "UTC" {
		t.Errorf("TimeZone = %s", cfg.Report.TimeZone)
	}
	if cfg.Report.DailyGoalMinutes != 240 {
		t.Errorf("DailyGoalMinutes = %d", cfg.Report.DailyGoalMinutes)
	}
	if cfg.Categories.SeedDefaults {
		t.Error("SeedDefaults = true, want false")
	}
	if cfg.Web.Port != 9999 {
		t.Errorf("Web.Port = %d", cfg.Web.Port)
	}
}

func TestLoadFromEnvIgnoresOutOfRangePoll(t *testing.T) {
	t.Setenv("ACTIVITY_TRACKER_POLL_INTERVAL", "100000")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Tracker.PollInterval != 15*time.Second {
		t.Errorf("PollInterval = %v, want default", cfg.Tracker.PollInterval)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("ACTIVITY_TRACKER_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ACTIVITY_TRACKER_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}
	if got := os.Getenv("ACTIVITY_TRACKER_TEST_DOTENV"); got != "from-file" {
		t.Errorf("env = %q, want from-file", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	cfg.Report.TimeZone = "America/Sao_Paulo"
	loc, err := cfg.Location()
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	if loc.String() != "America/Sao_Paulo" {
		t.Errorf("Location() = %s", loc)
	}
}
