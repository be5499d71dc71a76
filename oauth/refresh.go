// Package oauth provides token refresh scheduling for providers whose tokens
// are persisted in the oauth_tokens table. The metadata-API app token has no
// refresh token: renewal is a fresh client-credentials grant, performed when
// the stored token's issue date is older than the refresh window or its
// expiry is near. The refresher is the only scheduled writer of the row; the
// pipeline reads resolved tokens through its token source.
package oauth

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"time"

	"github.com/kmhagan/playfeed/db"
)

// RefreshFunc performs provider-specific renewal and returns
// (access, refresh, expiry, scope).
type RefreshFunc func(ctx context.Context) (string, string, time.Time, string, error)

// expiryGuard renews early when expiry is this close, regardless of cadence.
const expiryGuard = 24 * time.Hour

// StartRefresher launches a goroutine that periodically checks an oauth token
// row and renews it on cadence.
// provider: key in oauth_tokens table.
// interval: how often to wake up and check.
// window: renew when the issue date is older than this.
func StartRefresher(ctx context.Context, dbc *sql.DB, provider string, interval, window time.Duration, fn RefreshFunc) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if window <= 0 {
		window = 720 * time.Hour
	}
	go func() {
		// Immediate check so a missing token is acquired at boot rather than
		// a full interval later.
		checkOnce(ctx, dbc, provider, window, fn)
		for {
			// Per-iteration jitter (±20% of interval) to spread load across instances.
			jitterRange := int64(interval / 5)
			//nolint:gosec // G404: math/rand is sufficient for scheduling jitter, not used for security
			jitter := time.Duration(rand.Int63n(jitterRange*2) - jitterRange)
			nextSleep := interval + jitter
			if nextSleep < interval/2 {
				nextSleep = interval / 2
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(nextSleep):
			}
			checkOnce(ctx, dbc, provider, window, fn)
		}
	}()
}

func checkOnce(ctx context.Context, dbc *sql.DB, provider string, window time.Duration, fn RefreshFunc) {
	var access string
	var expiresAt, updatedAt time.Time
	row := dbc.QueryRowContext(ctx,
		`SELECT COALESCE(access_token,''), COALESCE(expires_at, to_timestamp(0)), COALESCE(updated_at, to_timestamp(0))
		 FROM oauth_tokens WHERE provider=$1 LIMIT 1`, provider)
	err := row.Scan(&access, &expiresAt, &updatedAt)
	if err != nil && err != sql.ErrNoRows {
		slog.Warn("token row read failed", slog.String("provider", provider), slog.Any("err", err))
		return
	}
	if err == nil && access != "" && time.Since(updatedAt) < window && time.Until(expiresAt) > expiryGuard {
		return
	}

	ctx2, cancel := context.WithTimeout(ctx, 15*time.Second)
	newAT, newRT, newExp, newScope, err := fn(ctx2)
	cancel()
	if err != nil {
		slog.Warn("token refresh failed", slog.String("provider", provider), slog.Any("err", err))
		return
	}
	if err := db.UpsertOAuthToken(ctx, dbc, provider, newAT, newRT, newExp, newScope); err != nil {
		slog.Warn("token persist failed", slog.String("provider", provider), slog.Any("err", err))
		return
	}
	slog.Info("token refreshed", slog.String("provider", provider), slog.Time("expires_at", newExp))
}
