package recon

import (
	"strings"
	"time"
)

// dateLayouts are tried in order when normalizing free-form date cells.
// Source feeds mix ISO timestamps, ISO dates and day-first slash formats.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"2/1/2006 15:04:05",
	"2/1/2006",
	"02-01-2006",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// parseCellDate parses a raw date cell best-effort. The zero time marks an
// unparsable value; callers must not treat it as an error.
func parseCellDate(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseMixedDate disambiguates an 8-digit date token extracted from
// narration text. Tokens opening with a plausible century parse as YYYYMMDD;
// everything else tries DDMMYYYY first and falls back to MMDDYYYY. For
// genuinely ambiguous tokens (day <= 12) the day-first read wins, which is
// the observed feed behavior rather than a guarantee of correctness.
func ParseMixedDate(token string) time.Time {
	s := strings.TrimSpace(token)
	if len(s) != 8 || !allDigits(s) {
		return time.Time{}
	}
	if strings.HasPrefix(s, "19") || strings.HasPrefix(s, "20") {
		t, err := time.Parse("20060102", s)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	if t, err := time.Parse("02012006", s); err == nil {
		return t
	}
	if t, err := time.Parse("01022006", s); err == nil {
		return t
	}
	return time.Time{}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// sameDate compares calendar dates, ignoring the time of day. Zero values
// never equal anything, including each other.
func sameDate(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
