package server

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/kmhagan/playfeed/config"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	cfg *config.Config
	db  *sql.DB
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(cfg *config.Config, db *sql.DB) *Handlers {
	return &Handlers{cfg: cfg, db: db}
}

// parseIntQuery extracts an int parameter from query string with a default value.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
