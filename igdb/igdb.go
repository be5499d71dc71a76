// Package igdb contains minimal helpers to look up game cover art through the
// IGDB API, which authenticates with a Twitch app access (client credentials)
// token. A missing cover is a valid empty result, not an error.
package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultBaseURL is the IGDB v4 API root.
const DefaultBaseURL = "https://api.igdb.com/v4"

// Client queries the IGDB API for cover image identifiers.
type Client struct {
	TokenSource *TokenSource
	ClientID    string
	HTTPClient  *http.Client
	BaseURL     string
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return DefaultBaseURL
}

func (c *Client) query(ctx context.Context, endpoint, body string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base()+endpoint, strings.NewReader(body))
	if err != nil {
		return err
	}
	tok, err := c.TokenSource.Get(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Client-ID", c.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := c.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("igdb %s failed: %s: %s", endpoint, resp.Status, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CoverImageID resolves a game slug to its cover image identifier using two
// sequential queries: game -> cover id, cover id -> image id. An empty string
// with nil error means no cover exists for that game.
func (c *Client) CoverImageID(ctx context.Context, slug string) (string, error) {
	if slug == "" {
		return "", nil
	}

	var games []struct {
		ID    int64 `json:"id"`
		Cover int64 `json:"cover"`
	}
	gameQuery := fmt.Sprintf(`fields cover; where slug = "%s"; limit 1;`, slug)
	if err := c.query(ctx, "/games", gameQuery, &games); err != nil {
		return "", err
	}
	if len(games) == 0 || games[0].Cover == 0 {
		return "", nil
	}

	var covers []struct {
		ImageID string `json:"image_id"`
	}
	coverQuery := fmt.Sprintf(`fields image_id; where id = %d; limit 1;`, games[0].Cover)
	if err := c.query(ctx, "/covers", coverQuery, &covers); err != nil {
		return "", err
	}
	if len(covers) == 0 {
		return "", nil
	}
	return covers[0].ImageID, nil
}

// CoverURL builds the CDN URL for a cover image identifier.
func CoverURL(imageID string) string {
	if imageID == "" {
		return ""
	}
	return "https://images.igdb.com/igdb/image/upload/t_cover_big/" + imageID + ".jpg"
}

// SlugFromGameURL extracts the IGDB-compatible slug from a site-relative game
// path like "/games/celeste/".
func SlugFromGameURL(gameURL string) string {
	trimmed := strings.Trim(gameURL, "/")
	parts := strings.Split(trimmed, "/")
	for i, p := range parts {
		if p == "games" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
