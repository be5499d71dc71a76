package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/kmhagan/playfeed/db"
	"github.com/kmhagan/playfeed/testutil"
)

func countingRefresh(calls *int, access string) RefreshFunc {
	return func(ctx context.Context) (string, string, time.Time, string, error) {
		*calls++
		return access, "", time.Now().Add(60 * 24 * time.Hour), "", nil
	}
}

func TestCheckOnceAcquiresMissingToken(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	provider := "refresh_test_missing"

	calls := 0
	checkOnce(ctx, database, provider, 720*time.Hour, countingRefresh(&calls, "tok-1"))
	if calls != 1 {
		t.Fatalf("refresh called %d times, want 1", calls)
	}
	access, _, _, _, err := db.GetOAuthToken(ctx, database, provider)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if access != "tok-1" {
		t.Errorf("access = %q", access)
	}
}

func TestCheckOnceSkipsFreshToken(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	provider := "refresh_test_fresh"

	expiry := time.Now().Add(50 * 24 * time.Hour)
	if err := db.UpsertOAuthToken(ctx, database, provider, "tok-current", "", expiry, ""); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	calls := 0
	checkOnce(ctx, database, provider, 720*time.Hour, countingRefresh(&calls, "tok-new"))
	if calls != 0 {
		t.Fatalf("refresh called %d times, want 0", calls)
	}
}

func TestCheckOnceRenewsNearExpiry(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	provider := "refresh_test_expiring"

	// Issued just now but expiring within the guard: cadence alone would skip
	// it, the guard forces renewal.
	expiry := time.Now().Add(6 * time.Hour)
	if err := db.UpsertOAuthToken(ctx, database, provider, "tok-old", "", expiry, ""); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	calls := 0
	checkOnce(ctx, database, provider, 720*time.Hour, countingRefresh(&calls, "tok-new"))
	if calls != 1 {
		t.Fatalf("refresh called %d times, want 1", calls)
	}
	access, _, _, _, err := db.GetOAuthToken(ctx, database, provider)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if access != "tok-new" {
		t.Errorf("access = %q, want tok-new", access)
	}
}

func TestCheckOnceKeepsRowOnRefreshFailure(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	provider := "refresh_test_failure"

	expiry := time.Now().Add(time.Hour)
	if err := db.UpsertOAuthToken(ctx, database, provider, "tok-old", "", expiry, ""); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	failing := func(ctx context.Context) (string, string, time.Time, string, error) {
		return "", "", time.Time{}, "", context.DeadlineExceeded
	}
	checkOnce(ctx, database, provider, 720*time.Hour, failing)

	access, _, _, _, err := db.GetOAuthToken(ctx, database, provider)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if access != "tok-old" {
		t.Errorf("access = %q, want tok-old preserved", access)
	}
}
