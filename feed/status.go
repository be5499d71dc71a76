package feed

import "strings"

// Status is the closed set of lifecycle events an activity row can describe.
type Status int

const (
	StatusNone Status = iota
	StatusNowPlaying
	StatusPlayed
	StatusFinished
	StatusCompleted
	StatusAbandoned
	StatusShelved
	StatusRetired
)

// statusKeywords is checked in order; the first match wins. The ordering
// matters because some keywords appear as substrings of broader phrases in
// the source markup.
var statusKeywords = []struct {
	keyword string
	status  Status
}{
	{"now playing", StatusNowPlaying},
	{"played", StatusPlayed},
	{"finished", StatusFinished},
	{"completed", StatusCompleted},
	{"abandoned", StatusAbandoned},
	{"shelved", StatusShelved},
	{"retired", StatusRetired},
}

// Classify maps the raw text of an activity row to a Status. It is total:
// unrecognized text yields StatusNone, never an error.
func Classify(text string) Status {
	lower := strings.ToLower(text)
	for _, k := range statusKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.status
		}
	}
	return StatusNone
}

// String returns the stable identifier used for storage and configuration.
func (s Status) String() string {
	switch s {
	case StatusNowPlaying:
		return "now_playing"
	case StatusPlayed:
		return "played"
	case StatusFinished:
		return "finished"
	case StatusCompleted:
		return "completed"
	case StatusAbandoned:
		return "abandoned"
	case StatusShelved:
		return "shelved"
	case StatusRetired:
		return "retired"
	default:
		return "none"
	}
}

// Display returns the phrasing used in notifications. The mapping is
// injective across recognized statuses.
func (s Status) Display() string {
	switch s {
	case StatusNowPlaying:
		return "is now playing"
	case StatusPlayed:
		return "played"
	case StatusFinished:
		return "finished"
	case StatusCompleted:
		return "completed"
	case StatusAbandoned:
		return "abandoned"
	case StatusShelved:
		return "shelved"
	case StatusRetired:
		return "retired"
	default:
		return "logged"
	}
}
