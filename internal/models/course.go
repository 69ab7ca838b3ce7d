package models

import "time"

// Course is a catalogue entry identified by its course code, e.g. "CMSC 126".
type Course struct {
	ID         string    `db:"id" json:"id"`
	CourseCode string    `db:"course_code" json:"course_code"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail extends Course with its class sections.
type CourseDetail struct {
	Course
	Sections []SectionDetail `json:"sections"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
