// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Required values (webhook URL, at least one username) are checked by Validate.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Feed
	Usernames       []string
	FeedBaseURL     string
	UserAgent       string
	PollInterval    time.Duration
	FreshnessWindow time.Duration
	ReviewLimit     int

	// Notifications
	DiscordWebhookURL string
	StatusExclude     map[string]bool

	// Cover lookup (IGDB via Twitch app credentials)
	TwitchClientID     string
	TwitchClientSecret string

	// Token refresh
	TokenRefreshWindow time.Duration

	// Database
	DBDsn string
}

// Watchlist is the optional YAML file listing tracked users. It exists so a
// longer list doesn't have to live in an environment variable.
type Watchlist struct {
	Users []WatchlistUser `yaml:"users"`
}

type WatchlistUser struct {
	Username string `yaml:"username"`
}

// Load reads environment variables and applies defaults. It only fails on
// malformed values; use Validate() before starting the poll loop.
func Load() (*Config, error) {
	cfg := &Config{}

	if v := os.Getenv("BACKLOGGD_USERS"); v != "" {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.Usernames = append(cfg.Usernames, u)
			}
		}
	}
	if path := os.Getenv("WATCHLIST_FILE"); path != "" {
		users, err := loadWatchlist(path)
		if err != nil {
			return nil, fmt.Errorf("load watchlist: %w", err)
		}
		cfg.Usernames = append(cfg.Usernames, users...)
	}

	cfg.FeedBaseURL = os.Getenv("FEED_BASE_URL")
	cfg.UserAgent = os.Getenv("HTTP_USER_AGENT")

	cfg.PollInterval = 15 * time.Minute
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q", v)
		}
		cfg.PollInterval = d
	}

	cfg.FreshnessWindow = 30 * time.Minute
	if v := os.Getenv("FRESHNESS_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid FRESHNESS_WINDOW %q", v)
		}
		cfg.FreshnessWindow = d
	}
	// Entries landing between polls are only caught while still inside the
	// freshness window.
	if cfg.FreshnessWindow < cfg.PollInterval {
		slog.Warn("freshness window shorter than poll interval; new entries may be missed",
			slog.Duration("window", cfg.FreshnessWindow), slog.Duration("interval", cfg.PollInterval))
	}

	cfg.ReviewLimit = 500
	if v := os.Getenv("REVIEW_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid REVIEW_LIMIT %q", v)
		}
		cfg.ReviewLimit = n
	}

	cfg.DiscordWebhookURL = os.Getenv("DISCORD_WEBHOOK_URL")

	cfg.StatusExclude = map[string]bool{}
	for _, s := range strings.Split(os.Getenv("STATUS_EXCLUDE"), ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			cfg.StatusExclude[s] = true
		}
	}

	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")

	cfg.TokenRefreshWindow = 720 * time.Hour // 30 days
	if v := os.Getenv("TOKEN_REFRESH_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_REFRESH_WINDOW %q", v)
		}
		cfg.TokenRefreshWindow = d
	}

	// Empty means no persistence: no play history, no stored tokens.
	cfg.DBDsn = os.Getenv("DB_DSN")

	return cfg, nil
}

func loadWatchlist(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wl Watchlist
	if err := yaml.Unmarshal(b, &wl); err != nil {
		return nil, err
	}
	var users []string
	for _, u := range wl.Users {
		if name := strings.TrimSpace(u.Username); name != "" {
			users = append(users, name)
		}
	}
	return users, nil
}

// Validate checks the fields the poll loop cannot run without. Call it at
// startup so misconfiguration fails fast instead of looping uselessly.
func (c *Config) Validate() error {
	if c.DiscordWebhookURL == "" {
		return fmt.Errorf("missing DISCORD_WEBHOOK_URL")
	}
	if len(c.Usernames) == 0 {
		return fmt.Errorf("no users configured: set BACKLOGGD_USERS or WATCHLIST_FILE")
	}
	return nil
}

// CoverLookupEnabled reports whether IGDB cover lookup credentials are present.
func (c *Config) CoverLookupEnabled() bool {
	return c.TwitchClientID != "" && c.TwitchClientSecret != ""
}
