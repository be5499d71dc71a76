package feed

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var widthPercentRe = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)%`)
})

// StarsFromStyle converts a percentage-width style attribute (e.g.
// "width:70%") to a 0-5 star rating in half-star increments. Invalid or
// missing input yields 0, never an error.
func StarsFromStyle(style string) float64 {
	m := widthPercentRe().FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct <= 0 {
		return 0
	}
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*5/100*2) / 2
}

// StarsText renders a rating as filled star glyphs: one per whole star, plus
// a half glyph when any fractional part remains. Unrated renders empty.
func StarsText(stars float64) string {
	if stars <= 0 {
		return ""
	}
	whole := int(stars)
	text := strings.Repeat("★", whole)
	if stars-float64(whole) > 0 {
		text += "½"
	}
	return text
}
