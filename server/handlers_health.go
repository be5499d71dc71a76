package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kmhagan/playfeed/igdb"
)

// HandleHealthz responds to liveness probe requests by checking database connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests with detailed system checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"database", func() error {
			if h.db == nil {
				return nil
			}
			return h.db.PingContext(r.Context())
		}},
		{"poll_job", func() error {
			if h.db == nil {
				return nil
			}
			var last string
			err := h.db.QueryRowContext(r.Context(),
				"SELECT value FROM kv WHERE key='job_poll_last'").Scan(&last)
			if err == sql.ErrNoRows {
				// First cycle hasn't run yet.
				return nil
			}
			if err != nil {
				return err
			}
			t, err := time.Parse(time.RFC3339Nano, last)
			if err != nil {
				return fmt.Errorf("bad job_poll_last value %q", last)
			}
			if stale := time.Since(t); stale > 3*h.cfg.PollInterval {
				return fmt.Errorf("poll job stale for %s", stale.Truncate(time.Second))
			}
			return nil
		}},
		{"credentials", func() error {
			if h.db == nil || !h.cfg.CoverLookupEnabled() {
				return nil
			}
			var count int
			err := h.db.QueryRowContext(r.Context(),
				"SELECT COUNT(*) FROM oauth_tokens WHERE provider=$1", igdb.Provider).Scan(&count)
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("missing %s token", igdb.Provider)
			}
			return nil
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
