package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads so host values don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BACKLOGGD_USERS", "WATCHLIST_FILE", "FEED_BASE_URL", "HTTP_USER_AGENT",
		"POLL_INTERVAL", "FRESHNESS_WINDOW", "REVIEW_LIMIT", "DISCORD_WEBHOOK_URL",
		"STATUS_EXCLUDE", "TWITCH_CLIENT_ID", "TWITCH_CLIENT_SECRET",
		"TOKEN_REFRESH_WINDOW", "DB_DSN",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval != 15*time.Minute {
		t.Errorf("poll interval = %v", cfg.PollInterval)
	}
	if cfg.FreshnessWindow != 30*time.Minute {
		t.Errorf("freshness window = %v", cfg.FreshnessWindow)
	}
	if cfg.ReviewLimit != 500 {
		t.Errorf("review limit = %d", cfg.ReviewLimit)
	}
	if cfg.TokenRefreshWindow != 720*time.Hour {
		t.Errorf("token refresh window = %v", cfg.TokenRefreshWindow)
	}
	if cfg.CoverLookupEnabled() {
		t.Error("cover lookup should be disabled without credentials")
	}
}

func TestLoadUsers(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKLOGGD_USERS", "ana, bo ,,   ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Usernames) != 2 || cfg.Usernames[0] != "ana" || cfg.Usernames[1] != "bo" {
		t.Errorf("usernames = %v", cfg.Usernames)
	}
}

func TestLoadWatchlistFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	data := "users:\n  - username: ana\n  - username: bo\n  - username: \"\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BACKLOGGD_USERS", "carol")
	t.Setenv("WATCHLIST_FILE", path)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Env users come first, then watchlist order.
	want := []string{"carol", "ana", "bo"}
	if len(cfg.Usernames) != len(want) {
		t.Fatalf("usernames = %v", cfg.Usernames)
	}
	for i := range want {
		if cfg.Usernames[i] != want[i] {
			t.Errorf("usernames[%d] = %q, want %q", i, cfg.Usernames[i], want[i])
		}
	}
}

func TestLoadWatchlistMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("WATCHLIST_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing watchlist file")
	}
}

func TestLoadInvalidDurations(t *testing.T) {
	for _, k := range []string{"POLL_INTERVAL", "FRESHNESS_WINDOW", "TOKEN_REFRESH_WINDOW"} {
		clearEnv(t)
		t.Setenv(k, "soon")
		if _, err := Load(); err == nil {
			t.Errorf("%s=soon: expected error", k)
		}
		t.Setenv(k, "-5m")
		if _, err := Load(); err == nil {
			t.Errorf("%s=-5m: expected error", k)
		}
	}
}

func TestLoadStatusExclude(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATUS_EXCLUDE", "Completed, shelved")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.StatusExclude["completed"] || !cfg.StatusExclude["shelved"] {
		t.Errorf("status exclude = %v", cfg.StatusExclude)
	}
	if cfg.StatusExclude["finished"] {
		t.Error("finished should not be excluded")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without webhook")
	}
	cfg.DiscordWebhookURL = "https://discord.test/webhook"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without users")
	}
	cfg.Usernames = []string{"ana"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
