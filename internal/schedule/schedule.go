// Package schedule parses and compares weekly class meeting times stored as
// "<days> | <start> - <end>", for example "M TH | 11:00 AM - 12:00 PM".
package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// Separator splits the day list from the time range in a schedule string.
const Separator = "|"

var (
	ErrMalformedSchedule = errors.New("malformed schedule")
	ErrMalformedTime     = errors.New("malformed time")
	ErrInvertedRange     = errors.New("time range must end after it starts")
	ErrUnknownDay        = errors.New("unknown day token")
	ErrNoDays            = errors.New("no day tokens")
)

// Schedule is the structured form of a schedule string.
type Schedule struct {
	Days  []Day
	Range TimeRange
}

// Parse decodes a persisted schedule string. Day tokens are not checked
// against the canonical list so that legacy rows still compare by token.
func Parse(raw string) (Schedule, error) {
	parts := strings.Split(raw, Separator)
	if len(parts) != 2 {
		return Schedule{}, fmt.Errorf("%w: expected exactly one %q in %q", ErrMalformedSchedule, Separator, raw)
	}

	days, err := ParseDays(parts[0], false)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: %w", ErrMalformedSchedule, err)
	}
	rng, err := ParseTimeRange(parts[1])
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: %w", ErrMalformedSchedule, err)
	}
	return Schedule{Days: days, Range: rng}, nil
}

// FromParts builds a schedule from the separate day and time inputs used by
// the API, validating day tokens when strict is set.
func FromParts(days, timeRange string, strict bool) (Schedule, error) {
	parsedDays, err := ParseDays(days, strict)
	if err != nil {
		return Schedule{}, err
	}
	rng, err := ParseTimeRange(timeRange)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Days: parsedDays, Range: rng}, nil
}

// HasDay reports whether d is one of the schedule's day tokens.
func (s Schedule) HasDay(d Day) bool {
	for _, day := range s.Days {
		if day == d {
			return true
		}
	}
	return false
}

// Collides reports whether two schedules share a day and overlap in time.
func (s Schedule) Collides(other Schedule) bool {
	if !s.Range.Overlaps(other.Range) {
		return false
	}
	for _, day := range s.Days {
		if other.HasDay(day) {
			return true
		}
	}
	return false
}

// String renders the canonical persisted form.
func (s Schedule) String() string {
	return JoinDays(s.Days) + " " + Separator + " " + s.Range.String()
}
