package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kmhagan/playfeed/db"
)

type statusResponse struct {
	WatchedUsers []string     `json:"watched_users"`
	PollInterval string       `json:"poll_interval"`
	LastPoll     string       `json:"last_poll,omitempty"`
	TotalPlays   int          `json:"total_plays"`
	RecentPlays  []playStatus `json:"recent_plays"`
}

type playStatus struct {
	Username   string  `json:"username"`
	GameName   string  `json:"game_name"`
	Status     string  `json:"status"`
	Rating     float64 `json:"rating,omitempty"`
	PlayedAt   string  `json:"played_at"`
	NotifiedAt string  `json:"notified_at"`
}

// HandleStatus summarizes poll state and recently notified plays.
// Supports ?limit= to bound the recent plays list (default 20, max 100).
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		WatchedUsers: h.cfg.Usernames,
		PollInterval: h.cfg.PollInterval.String(),
		RecentPlays:  []playStatus{},
	}

	if h.db != nil {
		ctx := r.Context()
		var last string
		_ = h.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key='job_poll_last'").Scan(&last)
		resp.LastPoll = last

		if n, err := db.CountPlays(ctx, h.db); err == nil {
			resp.TotalPlays = n
		}

		limit := parseIntQuery(r, "limit", 20)
		if limit < 1 || limit > 100 {
			limit = 20
		}
		plays, err := db.RecentPlays(ctx, h.db, limit)
		if err != nil {
			http.Error(w, "status query failed", http.StatusInternalServerError)
			return
		}
		for _, p := range plays {
			resp.RecentPlays = append(resp.RecentPlays, playStatus{
				Username:   p.Username,
				GameName:   p.GameName,
				Status:     p.Status,
				Rating:     p.Rating,
				PlayedAt:   p.PlayedAt.UTC().Format(time.RFC3339),
				NotifiedAt: p.NotifiedAt.UTC().Format(time.RFC3339),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
