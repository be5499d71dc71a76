package feed

import "testing"

func TestStarsFromStyle(t *testing.T) {
	cases := []struct {
		style string
		want  float64
	}{
		{"width: 70%", 3.5},
		{"width:100%", 5},
		{"width: 10%", 0.5},
		{"width: 90%", 4.5},
		{"width: 0%", 0},
		{"width: 73%", 3.5},
		{"width: 76%", 4},
		{"width: 66.6%", 3.5},
		// out of range clamps
		{"width: 140%", 5},
		// malformed yields unrated
		{"", 0},
		{"width: auto", 0},
		{"color: red", 0},
	}
	for _, c := range cases {
		if got := StarsFromStyle(c.style); got != c.want {
			t.Errorf("StarsFromStyle(%q) = %v, want %v", c.style, got, c.want)
		}
	}
}

func TestStarsText(t *testing.T) {
	cases := []struct {
		stars float64
		want  string
	}{
		{0, ""},
		{0.5, "½"},
		{1, "★"},
		{3.5, "★★★½"},
		{5, "★★★★★"},
		{-1, ""},
	}
	for _, c := range cases {
		if got := StarsText(c.stars); got != c.want {
			t.Errorf("StarsText(%v) = %q, want %q", c.stars, got, c.want)
		}
	}
}
