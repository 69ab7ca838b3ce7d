package models

import "time"

// SectionType distinguishes lectures from laboratory sections.
type SectionType string

const (
	SectionTypeLecture    SectionType = "Lecture"
	SectionTypeLaboratory SectionType = "Laboratory"
)

// Section is a scheduled class section of a course. Schedule holds the
// persisted "<days> | <start> - <end>" string.
type Section struct {
	ID        string      `db:"id" json:"id"`
	CourseID  string      `db:"course_id" json:"course_id"`
	Section   string      `db:"section" json:"section"`
	Type      SectionType `db:"type" json:"type"`
	RoomID    *string     `db:"room_id" json:"room_id,omitempty"`
	FacultyID *string     `db:"faculty_id" json:"faculty_id,omitempty"`
	Schedule  string      `db:"schedule" json:"schedule"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// SectionDetail adds the display names joined from related tables.
type SectionDetail struct {
	Section
	CourseCode  string  `db:"course_code" json:"course_code"`
	RoomName    *string `db:"room_name" json:"room,omitempty"`
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
}

// SectionFilter captures supported filters for listing sections.
type SectionFilter struct {
	CourseID  string
	FacultyID string
	RoomID    string
	Type      string
	Day       string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
