package feed

import (
	"html"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Selectors for the Backloggd activity markup. The actor and game links share
// the same anchor class, so Extract disambiguates by position: first anchor is
// the actor, second is the game. Keep that quirk contained in this file.
const (
	rowSelector        = "div#activities-list > div"
	anchorSelector     = "a.secondary-link"
	ratingSelector     = "div.stars-top"
	timestampSelector  = "[data-tippy-content]"
	reviewCardSelector = "div.review-card"
	reviewLinkSelector = "a.review-link"
	reviewBodySelector = "div.card-text"
	spoilerSelector    = "div.spoiler-warning"
)

// DefaultReviewLimit bounds review text when no limit is configured.
const DefaultReviewLimit = 500

// ParseRows splits a full activity page into its ordered activity-row
// fragments. Malformed HTML never fails; pages without the activities
// container yield an empty slice.
func ParseRows(pageHTML string) []*goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}
	var rows []*goquery.Selection
	doc.Find(rowSelector).Each(func(_ int, s *goquery.Selection) {
		rows = append(rows, s)
	})
	return rows
}

// Extractor parses single activity-row fragments into RawEntry values.
type Extractor struct {
	// ReviewLimit bounds review text length; zero means DefaultReviewLimit.
	ReviewLimit int
}

// Extract parses one activity row. Missing actor, game, or timestamp aborts
// this row only; a missing star rating means unrated and a missing review
// card means no review.
func (e *Extractor) Extract(sel *goquery.Selection) (RawEntry, error) {
	anchors := sel.Find(anchorSelector)
	if anchors.Length() < 2 {
		return RawEntry{}, &ExtractError{Field: "game link"}
	}

	username := strings.TrimSpace(anchors.Eq(0).Text())
	if username == "" {
		return RawEntry{}, &ExtractError{Field: "actor name"}
	}

	game := anchors.Eq(1)
	rawName, err := game.Html()
	if err != nil || strings.TrimSpace(rawName) == "" {
		return RawEntry{}, &ExtractError{Field: "game name"}
	}
	gameName := strings.TrimSpace(html.UnescapeString(rawName))
	gameURL, ok := game.Attr("href")
	gameURL = strings.TrimSpace(gameURL)
	if !ok || gameURL == "" {
		return RawEntry{}, &ExtractError{Field: "game url"}
	}

	ts, err := extractTimestamp(sel)
	if err != nil {
		return RawEntry{}, err
	}

	entry := RawEntry{
		Username:  username,
		GameName:  gameName,
		GameURL:   gameURL,
		Status:    Classify(sel.Text()),
		Timestamp: ts,
	}

	if stars := sel.Find(ratingSelector); stars.Length() > 0 {
		style, _ := stars.First().Attr("style")
		entry.Rating = StarsFromStyle(style)
	}

	entry.Review = e.extractReview(sel)
	return entry, nil
}

// extractTimestamp reads the machine-readable tooltip attribute of the visible
// timestamp node. The attribute value is itself an HTML snippet containing a
// <time> element whose datetime attribute carries the authoritative ISO-8601
// value.
func extractTimestamp(sel *goquery.Selection) (int64, error) {
	node := sel.Find(timestampSelector).First()
	if node.Length() == 0 {
		return 0, &ExtractError{Field: "timestamp"}
	}
	tooltip, _ := node.Attr("data-tippy-content")
	inner, err := goquery.NewDocumentFromReader(strings.NewReader(tooltip))
	if err != nil {
		return 0, &ExtractError{Field: "timestamp"}
	}
	datetime, ok := inner.Find("time").First().Attr("datetime")
	if !ok {
		return 0, &ExtractError{Field: "timestamp"}
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(datetime))
	if err != nil {
		return 0, &ExtractError{Field: "timestamp"}
	}
	return t.UTC().Unix(), nil
}

func (e *Extractor) extractReview(sel *goquery.Selection) *Review {
	card := sel.Find(reviewCardSelector).First()
	if card.Length() == 0 {
		return nil
	}
	body, err := card.Find(reviewBodySelector).First().Html()
	if err != nil || strings.TrimSpace(body) == "" {
		return nil
	}
	limit := e.ReviewLimit
	if limit <= 0 {
		limit = DefaultReviewLimit
	}
	spoiler := card.Find(spoilerSelector).Length() > 0
	reviewURL, _ := card.Find(reviewLinkSelector).First().Attr("href")
	return &Review{
		URL:  strings.TrimSpace(reviewURL),
		Text: Summarize(body, spoiler, limit),
	}
}
