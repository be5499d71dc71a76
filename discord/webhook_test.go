package discord

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/kmhagan/playfeed/feed"
	"github.com/kmhagan/playfeed/testutil"
)

func resolve(path string) string {
	if path == "" || strings.HasPrefix(path, "http") {
		return path
	}
	return "https://example.test" + path
}

func sampleLog() feed.Log {
	return feed.Log{
		RawEntry: feed.RawEntry{
			Username:  "ana",
			GameName:  "Celeste",
			GameURL:   "/games/celeste/",
			Status:    feed.StatusFinished,
			Rating:    3.5,
			Timestamp: 1704110400,
		},
		AvatarURL: "https://example.test/images/ana.png",
	}
}

func TestNewLogEmbed(t *testing.T) {
	e := NewLogEmbed(sampleLog(), resolve, "")
	if e.Title != "Celeste ★★★½" {
		t.Errorf("title = %q", e.Title)
	}
	if e.URL != "https://example.test/games/celeste/" {
		t.Errorf("url = %q", e.URL)
	}
	if e.Color != 0xFA5B40 {
		t.Errorf("color = %#x", e.Color)
	}
	if len(e.Fields) != 1 {
		t.Fatalf("fields = %+v", e.Fields)
	}
	if e.Fields[0].Name != "finished" {
		t.Errorf("field name = %q", e.Fields[0].Name)
	}
	if e.Fields[0].Value != "<t:1704110400:R>" {
		t.Errorf("field value = %q", e.Fields[0].Value)
	}
	if e.Author == nil || e.Author.Name != "ana" || e.Author.URL != "https://example.test/u/ana/" {
		t.Errorf("author = %+v", e.Author)
	}
	if e.Author.IconURL != "https://example.test/images/ana.png" {
		t.Errorf("author icon = %q", e.Author.IconURL)
	}
	if e.Thumbnail != nil {
		t.Errorf("unexpected thumbnail: %+v", e.Thumbnail)
	}
	if e.Description != "" {
		t.Errorf("unexpected description: %q", e.Description)
	}
}

func TestNewLogEmbedUnrated(t *testing.T) {
	lg := sampleLog()
	lg.Rating = 0
	e := NewLogEmbed(lg, resolve, "")
	if e.Title != "Celeste" {
		t.Errorf("title = %q", e.Title)
	}
}

func TestNewLogEmbedWithCover(t *testing.T) {
	e := NewLogEmbed(sampleLog(), resolve, "https://images.igdb.com/igdb/image/upload/t_cover_big/co1abc.jpg")
	if e.Thumbnail == nil || !strings.Contains(e.Thumbnail.URL, "co1abc") {
		t.Errorf("thumbnail = %+v", e.Thumbnail)
	}
}

func TestNewLogEmbedWithReview(t *testing.T) {
	lg := sampleLog()
	lg.Review = &feed.Review{URL: "/u/ana/review/1/", Text: "great game"}
	e := NewLogEmbed(lg, resolve, "")
	if !strings.HasPrefix(e.Description, "great game\n") {
		t.Errorf("description = %q", e.Description)
	}
	if !strings.Contains(e.Description, "[Read the full review](https://example.test/u/ana/review/1/)") {
		t.Errorf("description missing review link: %q", e.Description)
	}
}

func TestSend(t *testing.T) {
	srv := testutil.NewMockWebhookServer(t)
	n := &Notifier{WebhookURL: srv.URL, Username: "playfeed"}
	if err := n.Send(context.Background(), NewLogEmbed(sampleLog(), resolve, "")); err != nil {
		t.Fatalf("send: %v", err)
	}
	payloads := srv.Payloads()
	if len(payloads) != 1 {
		t.Fatalf("got %d payloads", len(payloads))
	}
	if !strings.Contains(payloads[0], `"username":"playfeed"`) {
		t.Errorf("payload missing username: %s", payloads[0])
	}
	if !strings.Contains(payloads[0], "Celeste") {
		t.Errorf("payload missing embed: %s", payloads[0])
	}
}

func TestSendNon2xx(t *testing.T) {
	srv := testutil.NewMockWebhookServer(t)
	srv.Status = http.StatusTooManyRequests
	n := &Notifier{WebhookURL: srv.URL}
	if err := n.Send(context.Background(), Embed{Title: "x"}); err == nil {
		t.Fatal("expected error for 429")
	}
}
