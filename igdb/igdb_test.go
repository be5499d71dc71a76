package igdb

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/kmhagan/playfeed/testutil"
)

// staticTokenSource seeds a TokenSource whose cached token never expires
// during the test, so client tests don't need a token endpoint.
func staticTokenSource(tok string) *TokenSource {
	ts := &TokenSource{ClientID: "cid", ClientSecret: "secret"}
	ts.token = tok
	ts.expiresAt = time.Now().Add(time.Hour)
	return ts
}

func TestCoverImageID(t *testing.T) {
	srv := testutil.NewMockIGDBServer(t)
	srv.MockGameResponse(1234, 777)
	srv.MockCoverResponse(777, "co1abc")

	c := &Client{
		TokenSource: staticTokenSource("tok"),
		ClientID:    "cid",
		BaseURL:     srv.URL,
	}
	got, err := c.CoverImageID(context.Background(), "celeste")
	if err != nil {
		t.Fatalf("cover lookup: %v", err)
	}
	if got != "co1abc" {
		t.Errorf("image id = %q, want co1abc", got)
	}
}

func TestCoverImageIDNoMatch(t *testing.T) {
	srv := testutil.NewMockIGDBServer(t)
	srv.MockEmptyResponse("/games")

	c := &Client{TokenSource: staticTokenSource("tok"), ClientID: "cid", BaseURL: srv.URL}
	got, err := c.CoverImageID(context.Background(), "nonexistent-game")
	if err != nil {
		t.Fatalf("cover lookup: %v", err)
	}
	if got != "" {
		t.Errorf("image id = %q, want empty", got)
	}
}

func TestCoverImageIDNoCover(t *testing.T) {
	srv := testutil.NewMockIGDBServer(t)
	srv.MockGameResponse(1234, 0)

	c := &Client{TokenSource: staticTokenSource("tok"), ClientID: "cid", BaseURL: srv.URL}
	got, err := c.CoverImageID(context.Background(), "celeste")
	if err != nil {
		t.Fatalf("cover lookup: %v", err)
	}
	if got != "" {
		t.Errorf("image id = %q, want empty", got)
	}
}

func TestCoverImageIDEmptySlug(t *testing.T) {
	c := &Client{TokenSource: staticTokenSource("tok")}
	got, err := c.CoverImageID(context.Background(), "")
	if err != nil || got != "" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestCoverImageIDAPIError(t *testing.T) {
	srv := testutil.NewMockIGDBServer(t)
	srv.Handlers["/games"] = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad query", http.StatusBadRequest)
	}

	c := &Client{TokenSource: staticTokenSource("tok"), ClientID: "cid", BaseURL: srv.URL}
	if _, err := c.CoverImageID(context.Background(), "celeste"); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestQuerySetsHeaders(t *testing.T) {
	srv := testutil.NewMockIGDBServer(t)
	var gotClientID, gotAuth string
	srv.Handlers["/games"] = func(w http.ResponseWriter, r *http.Request) {
		gotClientID = r.Header.Get("Client-ID")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("[]"))
	}

	c := &Client{TokenSource: staticTokenSource("tok"), ClientID: "cid", BaseURL: srv.URL}
	if _, err := c.CoverImageID(context.Background(), "celeste"); err != nil {
		t.Fatal(err)
	}
	if gotClientID != "cid" {
		t.Errorf("Client-ID = %q", gotClientID)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestCoverURL(t *testing.T) {
	if got := CoverURL("co1abc"); got != "https://images.igdb.com/igdb/image/upload/t_cover_big/co1abc.jpg" {
		t.Errorf("got %q", got)
	}
	if got := CoverURL(""); got != "" {
		t.Errorf("got %q for empty id", got)
	}
}

func TestSlugFromGameURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/games/celeste/", "celeste"},
		{"/games/outer-wilds/", "outer-wilds"},
		{"games/celeste", "celeste"},
		{"/u/ana/", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := SlugFromGameURL(c.in); got != c.want {
			t.Errorf("SlugFromGameURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
