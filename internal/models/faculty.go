package models

import "time"

// Department groups faculty members.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter captures filtering options for listing departments.
type DepartmentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortOrder string
}

// Faculty represents an instructor who can be assigned to sections.
type Faculty struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FacultyDetail includes the department name for responses.
type FacultyDetail struct {
	Faculty
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// FacultyFilter captures filtering options for listing faculty.
type FacultyFilter struct {
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
