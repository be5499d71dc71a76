package feed

import (
	"html"
	"regexp"
	"strings"
	"sync"
)

// TruncationMarker terminates review text that was cut at the length limit.
const TruncationMarker = "…"

// spoilerDelimiter wraps spoiler-flagged text on both sides (Discord spoiler
// masking syntax).
const spoilerDelimiter = "||"

var brTagRe = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`(?i)<br\s*/?>`)
})

// Summarize converts review markup to plain text bounded by limit. Line-break
// tags become newlines and entities are decoded. Text under the limit passes
// through unchanged; longer text is truncated on a whitespace boundary and
// terminated with TruncationMarker. Spoiler wrapping applies to the final,
// possibly truncated text.
func Summarize(reviewHTML string, spoiler bool, limit int) string {
	if limit <= 0 {
		limit = DefaultReviewLimit
	}
	text := brTagRe().ReplaceAllString(reviewHTML, "\n")
	text = html.UnescapeString(text)
	if len(text) < limit {
		return wrapSpoiler(text, spoiler)
	}
	var b strings.Builder
	for _, word := range strings.Fields(text) {
		need := len(word)
		if b.Len() > 0 {
			need++
		}
		if b.Len()+need > limit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	return wrapSpoiler(strings.TrimSpace(b.String())+TruncationMarker, spoiler)
}

func wrapSpoiler(text string, spoiler bool) string {
	if !spoiler {
		return text
	}
	return spoilerDelimiter + text + spoilerDelimiter
}
