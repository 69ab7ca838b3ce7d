package schedule

import (
	"fmt"
	"strings"
)

// Day is a weekday token as it appears in a schedule string.
type Day string

// Canonical day tokens. Thursday uses TH so it never collides with Tuesday.
const (
	Monday    Day = "M"
	Tuesday   Day = "T"
	Wednesday Day = "W"
	Thursday  Day = "TH"
	Friday    Day = "F"
	Saturday  Day = "S"
	Sunday    Day = "SU"
)

var week = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Week returns the canonical day tokens in calendar order.
func Week() []Day {
	out := make([]Day, len(week))
	copy(out, week)
	return out
}

// Valid reports whether d is one of the canonical tokens.
func (d Day) Valid() bool {
	return d.Index() >= 0
}

// Index returns the position of d within the week, or -1 for unknown tokens.
func (d Day) Index() int {
	for i, day := range week {
		if day == d {
			return i
		}
	}
	return -1
}

// ParseDays splits a whitespace separated day list. Duplicates are dropped and
// the order of first appearance is kept. In strict mode unknown tokens fail.
func ParseDays(raw string, strict bool) ([]Day, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, ErrNoDays
	}

	days := make([]Day, 0, len(fields))
	seen := make(map[Day]struct{}, len(fields))
	for _, field := range fields {
		day := Day(field)
		if strict && !day.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDay, field)
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	return days, nil
}

// JoinDays renders days the way they are persisted: space separated.
func JoinDays(days []Day) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, " ")
}
