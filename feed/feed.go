// Package feed implements the Backloggd activity ingestion pipeline: parsing
// activity pages into rows, extracting structured entries, classifying status
// phrases, normalizing star ratings, summarizing review text, and filtering
// batches by freshness and duplication.
//
// The pipeline is stateless between poll cycles. A RawEntry is built once per
// extraction pass and either dropped (stale, duplicate, unclassifiable) or
// promoted to a Log by the orchestrator.
package feed

import "fmt"

// Review is the optional review attached to an activity row. Text is already
// bounded and spoiler-wrapped by Summarize.
type Review struct {
	URL  string
	Text string
}

// RawEntry is one structured activity-row record.
type RawEntry struct {
	Username string
	GameName string
	// GameURL is the relative path of the game page and the stable
	// identifier handed to downstream lookups.
	GameURL   string
	Status    Status
	Rating    float64 // 0.0-5.0 in half steps; 0 means unrated
	Timestamp int64   // UTC epoch seconds
	Review    *Review
}

// Log is a notification-ready record: a RawEntry plus enrichment attached by
// the orchestrator from external collaborators.
type Log struct {
	RawEntry
	AvatarURL    string
	CoverImageID string
}

// ExtractError reports a missing required field in an activity row. The
// orchestrator drops the row and continues with the batch.
type ExtractError struct {
	Field string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("activity row missing %s", e.Field)
}
