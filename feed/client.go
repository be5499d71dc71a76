package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// DefaultBaseURL is the feed site root used when none is configured.
const DefaultBaseURL = "https://backloggd.com"

const avatarSelector = "img.avatar"

// Client fetches activity pages and profile avatars over HTTP. Avatar URLs
// are cached per username since they change rarely and a cycle may look them
// up repeatedly.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client

	mu      sync.Mutex
	avatars map[string]string
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

// ProfileURL returns the absolute profile page URL for a username.
func (c *Client) ProfileURL(username string) string {
	return c.base() + "/u/" + url.PathEscape(username) + "/"
}

// ResolveURL makes a site-relative path (e.g. a game or review link) absolute.
func (c *Client) ResolveURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base() + path
}

// FetchActivity retrieves the raw HTML of a user's activity page. Any
// non-200 response is an error; the orchestrator abandons the cycle for that
// user and retries at the next interval.
func (c *Client) FetchActivity(ctx context.Context, username string) (string, error) {
	activityURL := c.ProfileURL(username) + "activity/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, activityURL, nil)
	if err != nil {
		return "", err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("activity fetch for %q failed: %s", username, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// AvatarURL resolves a user's avatar image URL from their profile page.
// Best-effort: failures return an empty string so notifications go out
// without an author icon.
func (c *Client) AvatarURL(ctx context.Context, username string) string {
	c.mu.Lock()
	if cached, ok := c.avatars[username]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProfileURL(username), nil)
	if err != nil {
		return ""
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.http().Do(req)
	if err != nil {
		slog.Debug("avatar fetch failed", slog.String("username", username), slog.Any("err", err))
		return ""
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	src, _ := doc.Find(avatarSelector).First().Attr("src")
	src = strings.TrimSpace(src)
	if src != "" {
		src = c.ResolveURL(src)
		c.mu.Lock()
		if c.avatars == nil {
			c.avatars = make(map[string]string)
		}
		c.avatars[username] = src
		c.mu.Unlock()
	}
	return src
}
