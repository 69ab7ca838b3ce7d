package models

import "fmt"

// ConflictKind names the resource that would be double-booked.
type ConflictKind string

const (
	ConflictKindFaculty ConflictKind = "faculty"
	ConflictKindRoom    ConflictKind = "room"
)

// Assignment is the read-only view of an existing section used by the
// conflict detector.
type Assignment struct {
	SectionID  string  `db:"id"`
	CourseCode string  `db:"course_code"`
	Section    string  `db:"section"`
	Schedule   string  `db:"schedule"`
	FacultyID  *string `db:"faculty_id"`
	RoomID     *string `db:"room_id"`
	RoomName   *string `db:"room_name"`
}

// AssignmentQuery selects candidate assignments for one resource and day.
// DayContains is a plain substring match on the stored schedule string.
type AssignmentQuery struct {
	FacultyID   string
	RoomID      string
	DayContains string
	ExcludeID   string
}

// Conflict reports an existing section that overlaps a proposed schedule.
type Conflict struct {
	Type                 ConflictKind `json:"type"`
	ConflictingSectionID string       `json:"conflicting_section_id"`
	Course               string       `json:"course"`
	Section              string       `json:"section"`
	Schedule             string       `json:"schedule"`
	Room                 *string      `json:"room"`
	ConflictDay          string       `json:"conflict_day"`
}

// ConflictCheckResult is returned by the standalone conflict check endpoint.
type ConflictCheckResult struct {
	HasConflicts bool       `json:"has_conflicts"`
	Conflicts    []Conflict `json:"conflicts"`
}

// ScheduleConflictError is returned when a section write collides with
// existing assignments.
type ScheduleConflictError struct {
	Message   string     `json:"message"`
	Conflicts []Conflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%d schedule conflict(s)", len(e.Conflicts))
}
