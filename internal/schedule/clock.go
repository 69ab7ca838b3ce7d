package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day at minute resolution, counted from midnight.
type Clock int

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s+(AM|PM)$`)

// ParseClock parses a 12-hour time such as "9:05 AM". Hours run 1-12 and the
// meridiem marker is case-sensitive.
func ParseClock(raw string) (Clock, error) {
	match := clockPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
	}

	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, fmt.Errorf("%w: %q out of range", ErrMalformedTime, raw)
	}

	hour %= 12
	if match[3] == "PM" {
		hour += 12
	}
	return Clock(hour*60 + minute), nil
}

// Hour returns the 24-hour clock hour.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute within the hour.
func (c Clock) Minute() int { return int(c) % 60 }

// String renders the clock as "H:MM AM".
func (c Clock) String() string {
	meridiem := "AM"
	if c.Hour() >= 12 {
		meridiem = "PM"
	}
	hour := c.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, c.Minute(), meridiem)
}

// TimeRange is a half-open interval [Start, End) within a single day.
type TimeRange struct {
	Start Clock
	End   Clock
}

var rangePattern = regexp.MustCompile(`^(\d{1,2}:\d{2}\s+[AP]M)\s*-\s*(\d{1,2}:\d{2}\s+[AP]M)$`)

// ParseTimeRange parses "H:MM AM - H:MM PM". Ranges whose end is not after
// their start are rejected with ErrInvertedRange.
func ParseTimeRange(raw string) (TimeRange, error) {
	match := rangePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
	}

	start, err := ParseClock(match[1])
	if err != nil {
		return TimeRange{}, err
	}
	end, err := ParseClock(match[2])
	if err != nil {
		return TimeRange{}, err
	}

	rng := TimeRange{Start: start, End: end}
	if !rng.Valid() {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrInvertedRange, raw)
	}
	return rng, nil
}

// Valid reports whether the range starts before it ends.
func (r TimeRange) Valid() bool {
	return r.Start < r.End
}

// Overlaps reports whether two ranges on the same day collide. Ranges that
// only touch at an endpoint do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	s1, e1 := r.Start, r.End
	s2, e2 := other.Start, other.End
	return (s1 <= s2 && s2 < e1) ||
		(s1 < e2 && e2 <= e1) ||
		(s2 <= s1 && s1 < e2) ||
		(s2 < e1 && e1 <= e2)
}

// Contains reports whether c falls inside the half-open range.
func (r TimeRange) Contains(c Clock) bool {
	return r.Start <= c && c < r.End
}

// Duration returns the length of the range.
func (r TimeRange) Duration() time.Duration {
	return time.Duration(r.End-r.Start) * time.Minute
}

// String renders the range as "H:MM AM - H:MM PM".
func (r TimeRange) String() string {
	return r.Start.String() + " - " + r.End.String()
}
