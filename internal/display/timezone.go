// Package display renders source timestamps in the dashboard's fixed timezone.
package display

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTimezone = "Europe/Paris"

	// Layout of a displayed instant
	Layout = "02.01.2006 15:04"

	placeholder = "-"
)

// Layouts accepted from the source, tried in order. Layouts without an
// offset are read as UTC.
var sourceLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Formatter formats instants in one timezone
type Formatter struct {
	loc *time.Location
}

// NewFormatter loads the named IANA timezone
func NewFormatter(tz string) (*Formatter, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return &Formatter{loc: loc}, nil
}

// Location returns the display timezone
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Instant formats a source timestamp for display, or "-" when it is
// missing or unreadable.
func (f *Formatter) Instant(raw *string) string {
	if raw == nil {
		return placeholder
	}
	t, err := ParseInstant(*raw)
	if err != nil {
		return placeholder
	}
	return t.In(f.loc).Format(Layout)
}

// ParseInstant parses a source timestamp. Timestamps without an offset are UTC.
func ParseInstant(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range sourceLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
