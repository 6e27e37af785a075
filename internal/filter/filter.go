// Package filter holds the dashboard's filter criteria and turns them into
// the flat query the bet log source understands.
package filter

import (
	"strings"
	"time"
)

// Season is a supported betting season
type Season string

const (
	Season2024 Season = "2024-2025"
	Season2025 Season = "2025-2026"

	DefaultSeason = Season2024
)

// Seasons lists every supported season, oldest first
var Seasons = []Season{Season2024, Season2025}

// ParseSeason returns the season for s, or "" when s is not supported
func ParseSeason(s string) Season {
	for _, season := range Seasons {
		if string(season) == s {
			return season
		}
	}
	return ""
}

// BetType restricts bets to one side of the total. The zero value means all.
type BetType string

const (
	BetTypeAll   BetType = ""
	BetTypeOver  BetType = "OVER"
	BetTypeUnder BetType = "UNDER"
)

// Result restricts bets by outcome. The zero value means all.
type Result string

const (
	ResultAll  Result = ""
	ResultWin  Result = "WIN"
	ResultLose Result = "LOSE"
)

// Premium is a tri-state restriction on premium bets
type Premium int

const (
	PremiumUnset Premium = iota
	PremiumIncluded
	PremiumExcluded
)

func (p Premium) String() string {
	switch p {
	case PremiumIncluded:
		return "true"
	case PremiumExcluded:
		return "false"
	default:
		return ""
	}
}

// DateRange is an inclusive range of calendar dates (YYYY-MM-DD).
// Either bound may be empty.
type DateRange struct {
	Start string
	End   string
}

// IsEmpty reports whether neither bound is set
func (d DateRange) IsEmpty() bool {
	return d.Start == "" && d.End == ""
}

// TimeRange is a daily time-of-day window (HH:MM)
type TimeRange struct {
	Start string
	End   string
}

// IsEmpty reports whether neither bound is set
func (t TimeRange) IsEmpty() bool {
	return t.Start == "" && t.End == ""
}

// Filter is the user's current selection of criteria.
// The zero value selects every bet of every season.
type Filter struct {
	Season      Season
	Tournaments []string
	Dates       DateRange
	Times       TimeRange
	Month       string // YYYY-MM
	BetType     BetType
	Premium     Premium
	Result      Result
}

// WithSeason returns a filter for season s with every other criterion reset
func (f Filter) WithSeason(s Season) Filter {
	return Filter{Season: s}
}

// WithMonth selects a month and clears the date range
func (f Filter) WithMonth(month string) Filter {
	f.Month = month
	f.Dates = DateRange{}
	return f
}

// WithDates selects a date range and clears the month
func (f Filter) WithDates(d DateRange) Filter {
	f.Dates = d
	f.Month = ""
	return f
}

// IsDate reports whether s is a YYYY-MM-DD calendar date
func IsDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// IsMonth reports whether s is a YYYY-MM month token
func IsMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

// IsClock reports whether s is an HH:MM time of day
func IsClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// cleanTournaments trims names, drops blanks and duplicates, and keeps the
// first-seen order. Names containing a comma are dropped: the query carries
// the selection as one comma separated value.
func cleanTournaments(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || strings.Contains(name, ",") {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// sameSet reports whether a and b hold the same tournament names
func sameSet(a, b []string) bool {
	a, b = cleanTournaments(a), cleanTournaments(b)
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(b))
	for _, name := range b {
		set[name] = struct{}{}
	}
	for _, name := range a {
		if _, ok := set[name]; !ok {
			return false
		}
	}
	return true
}
