package models

// TimetableEntry is one weekly meeting of a section, expanded per day.
type TimetableEntry struct {
	Day         string      `json:"day"`
	Start       string      `json:"start"`
	End         string      `json:"end"`
	SectionID   string      `json:"section_id"`
	Course      string      `json:"course"`
	Section     string      `json:"section"`
	Type        SectionType `json:"type"`
	Room        *string     `json:"room,omitempty"`
	FacultyName *string     `json:"faculty_name,omitempty"`
}

// Timetable is the weekly agenda of a faculty member or room.
type Timetable struct {
	OwnerID   string           `json:"owner_id"`
	OwnerKind ConflictKind     `json:"owner_kind"`
	OwnerName string           `json:"owner_name"`
	Entries   []TimetableEntry `json:"entries"`
	// Skipped counts sections whose stored schedule could not be parsed.
	Skipped int `json:"skipped"`
	// CacheHit is set when the timetable was served from cache.
	CacheHit bool `json:"-"`
}
