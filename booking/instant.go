package booking

import (
	"fmt"
	"strings"
	"time"
)

// Layouts without a zone, tried after RFC 3339. They cover what calendar
// selections and datetime-local inputs send.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseInstant parses s as an instant, reading zone-less values as UTC.
func ParseInstant(s string) (time.Time, error) {
	return ParseInstantIn(s, time.UTC)
}

// ParseInstantIn parses s as an instant, reading zone-less values in loc.
func ParseInstantIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)

	if len(s) == 0 {
		return time.Time{}, ErrInvalidStart
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidStart, s)
}
