package feed

import (
	"testing"
	"time"
)

func TestFresh(t *testing.T) {
	now := int64(1704110400)
	window := 30 * time.Minute
	cases := []struct {
		name string
		ts   int64
		want bool
	}{
		{"just logged", now, true},
		{"inside window", now - 1799, true},
		{"exactly at boundary", now - 1800, false},
		{"outside window", now - 3600, false},
		{"future timestamp", now + 60, true},
	}
	for _, c := range cases {
		if got := Fresh(c.ts, now, window); got != c.want {
			t.Errorf("%s: Fresh(%d, %d, %v) = %v, want %v", c.name, c.ts, now, window, got, c.want)
		}
	}
}

func TestDedup(t *testing.T) {
	entries := []RawEntry{
		{Username: "ana", GameName: "Celeste", Status: StatusNowPlaying},
		{Username: "ana", GameName: "Hades", Status: StatusPlayed},
		{Username: "ana", GameName: "Celeste", Status: StatusFinished},
		{Username: "bo", GameName: "Celeste", Status: StatusFinished},
	}
	got := Dedup(entries)
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	// First occurrence wins and order is preserved.
	if got[0].Status != StatusNowPlaying {
		t.Errorf("first ana/Celeste entry should win, got status %v", got[0].Status)
	}
	if got[1].GameName != "Hades" || got[2].Username != "bo" {
		t.Errorf("order not preserved: %+v", got)
	}
}

func TestDedupIdempotent(t *testing.T) {
	entries := []RawEntry{
		{Username: "ana", GameName: "Celeste"},
		{Username: "ana", GameName: "Celeste"},
		{Username: "bo", GameName: "Hades"},
	}
	once := Dedup(entries)
	twice := Dedup(once)
	if len(once) != len(twice) {
		t.Fatalf("dedup not idempotent: %d vs %d", len(once), len(twice))
	}
}

func TestDedupEmpty(t *testing.T) {
	if got := Dedup(nil); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}
