package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// MockIGDBServer creates a test server that mocks IGDB API responses.
type MockIGDBServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockIGDBServer creates a new mock IGDB API server.
func NewMockIGDBServer(t *testing.T) *MockIGDBServer {
	t.Helper()
	m := &MockIGDBServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockGameResponse adds a handler for the /games endpoint returning one game
// with the given cover id.
func (m *MockIGDBServer) MockGameResponse(gameID, coverID int64) {
	m.Handlers["/games"] = func(w http.ResponseWriter, r *http.Request) {
		response := []map[string]any{
			{"id": gameID, "cover": coverID},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockCoverResponse adds a handler for the /covers endpoint.
func (m *MockIGDBServer) MockCoverResponse(coverID int64, imageID string) {
	m.Handlers["/covers"] = func(w http.ResponseWriter, r *http.Request) {
		response := []map[string]any{
			{"id": coverID, "image_id": imageID},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockEmptyResponse makes an endpoint return an empty result set.
func (m *MockIGDBServer) MockEmptyResponse(path string) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}
}

// MockOAuthTokenResponse adds a handler for the token endpoint.
func (m *MockIGDBServer) MockOAuthTokenResponse(accessToken string, expiresIn int) {
	m.Handlers["/oauth2/token"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"access_token": accessToken,
			"expires_in":   expiresIn,
			"token_type":   "bearer",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockWebhookServer records webhook payloads for assertion.
type MockWebhookServer struct {
	*httptest.Server
	mu       sync.Mutex
	payloads []string
	// Status lets tests force a non-2xx response.
	Status int
}

// NewMockWebhookServer creates a webhook sink returning 204 by default.
func NewMockWebhookServer(t *testing.T) *MockWebhookServer {
	t.Helper()
	m := &MockWebhookServer{Status: http.StatusNoContent}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.payloads = append(m.payloads, string(body))
		status := m.Status
		m.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(m.Close)
	return m
}

// Payloads returns a copy of the recorded request bodies.
func (m *MockWebhookServer) Payloads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.payloads...)
}

// ActivityRow describes one activity entry for BuildActivityPage.
type ActivityRow struct {
	Username   string
	GameName   string
	GameSlug   string
	StatusText string
	RatingPct  string // stars-top width, e.g. "70%"
	Datetime   string // RFC3339 timestamp for the tooltip
	ReviewHTML string // raw review body, empty for none
	Spoiler    bool
}

// BuildActivityPage renders an activity page in the markup shape the parser
// expects. Rows with empty fields omit the corresponding elements.
func BuildActivityPage(rows ...ActivityRow) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="activities-list">`)
	for _, r := range rows {
		b.WriteString(`<div class="activity-row">`)
		if r.Username != "" {
			fmt.Fprintf(&b, `<a class="secondary-link" href="/u/%s/">%s</a>`, r.Username, r.Username)
		}
		b.WriteString(" " + r.StatusText + " ")
		if r.GameName != "" {
			fmt.Fprintf(&b, `<a class="secondary-link" href="/games/%s/">%s</a>`, r.GameSlug, r.GameName)
		}
		if r.RatingPct != "" {
			fmt.Fprintf(&b, `<div class="stars"><div class="stars-top" style="width: %s"></div></div>`, r.RatingPct)
		}
		if r.Datetime != "" {
			tooltip := fmt.Sprintf(`<time datetime='%s'></time>`, r.Datetime)
			fmt.Fprintf(&b, `<span data-tippy-content=%q>recently</span>`, tooltip)
		}
		if r.ReviewHTML != "" {
			b.WriteString(`<div class="review-card">`)
			if r.Spoiler {
				b.WriteString(`<div class="spoiler-warning">This review may contain spoilers</div>`)
			}
			fmt.Fprintf(&b, `<div class="card-text">%s</div>`, r.ReviewHTML)
			fmt.Fprintf(&b, `<a class="review-link" href="/u/%s/review/1/"></a>`, r.Username)
			b.WriteString(`</div>`)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}
