package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.API.BaseURL != "https://mataroa.blog/api/posts/" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSecs != 12 {
		t.Errorf("TimeoutSecs = %d, want 12", cfg.API.TimeoutSecs)
	}
	if cfg.Bot.PageSize != 5 {
		t.Errorf("PageSize = %d, want 5", cfg.Bot.PageSize)
	}
	if cfg.Bot.PostsCacheTTLSecs != 10 {
		t.Errorf("PostsCacheTTLSecs = %d, want 10", cfg.Bot.PostsCacheTTLSecs)
	}
	if cfg.Bot.PreviewMaxChars != 3900 {
		t.Errorf("PreviewMaxChars = %d, want 3900", cfg.Bot.PreviewMaxChars)
	}
	if cfg.Bot.CooldownMillis != 1500 {
		t.Errorf("CooldownMillis = %d, want 1500", cfg.Bot.CooldownMillis)
	}
	if cfg.Bot.DeleteGraceSecs != 15 {
		t.Errorf("DeleteGraceSecs = %d, want 15", cfg.Bot.DeleteGraceSecs)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("Backend = %q, want file", cfg.Store.Backend)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Telegram.PollTimeoutSecs != 50 {
		t.Errorf("PollTimeoutSecs = %d, want 50", cfg.Telegram.PollTimeoutSecs)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MATAROA_BOT_DIR", t.TempDir())
	if err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if AppConfig.Bot.PageSize != 5 {
		t.Errorf("PageSize = %d, want default 5", AppConfig.Bot.PageSize)
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	t.Setenv("MATAROA_BOT_DIR", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("bot:\n  page_size: 9\n  delete_grace_seconds: 30\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if AppConfig.Bot.PageSize != 9 {
		t.Errorf("PageSize = %d, want 9", AppConfig.Bot.PageSize)
	}
	if AppConfig.Bot.DeleteGraceSecs != 30 {
		t.Errorf("DeleteGraceSecs = %d, want 30", AppConfig.Bot.DeleteGraceSecs)
	}
	if AppConfig.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", AppConfig.Logging.Level)
	}
	// Untouched values keep their defaults.
	if AppConfig.Bot.PageSize == 9 && AppConfig.Bot.CooldownMillis != 1500 {
		t.Errorf("CooldownMillis = %d, want default 1500", AppConfig.Bot.CooldownMillis)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BOT_TOKEN", "tok-from-env")
	t.Setenv("MATAROA_API_URL", "https://example.test/api/posts/")
	t.Setenv("MATAROA_BOT_DIR", dir)
	t.Setenv("LOG_LEVEL", "warn")

	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if AppConfig.Telegram.Token != "tok-from-env" {
		t.Errorf("Token = %q", AppConfig.Telegram.Token)
	}
	if AppConfig.API.BaseURL != "https://example.test/api/posts/" {
		t.Errorf("BaseURL = %q", AppConfig.API.BaseURL)
	}
	if AppConfig.Store.Dir != dir {
		t.Errorf("Dir = %q, want %q", AppConfig.Store.Dir, dir)
	}
	if AppConfig.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", AppConfig.Logging.Level)
	}
}
