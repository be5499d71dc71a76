// Package discord delivers notification-ready records to a Discord channel
// through an incoming webhook. Delivery is one call per record; failures are
// reported to the caller and never retried here.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/kmhagan/playfeed/feed"
)

// Notifier posts embeds to a webhook URL.
type Notifier struct {
	WebhookURL string
	Username   string // optional display-name override
	HTTPClient *http.Client
}

type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []Embed `json:"embeds"`
}

// Embed mirrors the subset of the Discord embed object this service uses.
// https://discord.com/developers/docs/resources/message#embed-object
type Embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Thumbnail   *EmbedImage  `json:"thumbnail,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

const embedColor = 0xFA5B40

// NewLogEmbed renders a notification-ready record as an embed. resolve makes
// site-relative paths absolute; coverURL may be empty when no cover art was
// found.
func NewLogEmbed(lg feed.Log, resolve func(path string) string, coverURL string) Embed {
	title := lg.GameName
	if stars := feed.StarsText(lg.Rating); stars != "" {
		title += " " + stars
	}
	e := Embed{
		Title: title,
		URL:   resolve(lg.GameURL),
		Color: embedColor,
		Fields: []EmbedField{
			// <t:..:R> renders as a relative timestamp in the client.
			{Name: lg.Status.Display(), Value: fmt.Sprintf("<t:%d:R>", lg.Timestamp), Inline: true},
		},
		Author: &EmbedAuthor{
			Name:    lg.Username,
			URL:     resolve("/u/" + lg.Username + "/"),
			IconURL: lg.AvatarURL,
		},
	}
	if coverURL != "" {
		e.Thumbnail = &EmbedImage{URL: coverURL}
	}
	if lg.Review != nil {
		desc := lg.Review.Text
		if lg.Review.URL != "" {
			desc += "\n[Read the full review](" + resolve(lg.Review.URL) + ")"
		}
		e.Description = desc
	}
	return e
}

func (n *Notifier) http() *http.Client {
	if n.HTTPClient != nil {
		return n.HTTPClient
	}
	return http.DefaultClient
}

// Send posts one embed to the webhook. Any non-2xx response is an error.
func (n *Notifier) Send(ctx context.Context, embed Embed) error {
	body, err := json.Marshal(webhookPayload{Username: n.Username, Embeds: []Embed{embed}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("discord webhook failed: %s: %s", resp.Status, string(b))
	}
	return nil
}
