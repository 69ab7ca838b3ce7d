// Package seed loads a small sample catalogue through the regular services so
// every record passes validation and conflict detection.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	"github.com/noah-isme/campus-scheduler-api/internal/service"
)

// ErrAlreadySeeded is returned when the schedule already holds sections.
var ErrAlreadySeeded = errors.New("schedule already contains sections")

type departmentCreator interface {
	Create(ctx context.Context, req service.DepartmentRequest) (*models.Department, error)
}

type facultyCreator interface {
	Create(ctx context.Context, req service.FacultyRequest) (*models.FacultyDetail, error)
}

type roomCreator interface {
	Create(ctx context.Context, req service.RoomRequest) (*models.Room, error)
}

type sectionWriter interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error)
	Create(ctx context.Context, req service.CreateSectionRequest) (*models.SectionDetail, error)
}

type facultySeed struct {
	Name       string
	Department string
}

type roomSeed struct {
	Room  string
	Floor string
}

type sectionSeed struct {
	Course  string
	Section string
	Type    models.SectionType
	Room    string
	Faculty string
	Day     string
	Time    string
}

var departments = []string{"Biology", "Computer Science", "Mathematics", "Statistics"}

var faculty = []facultySeed{
	{Name: "Alicaya, Erik", Department: "Computer Science"},
	{Name: "Dulaca, Ryan", Department: "Computer Science"},
	{Name: "Noel, Kyle", Department: "Computer Science"},
	{Name: "Roldan, Jace", Department: "Computer Science"},
	{Name: "Tan, Darmae", Department: "Computer Science"},
	{Name: "Dr. Santos", Department: "Biology"},
	{Name: "Prof. Garcia", Department: "Mathematics"},
	{Name: "Dr. Lee", Department: "Statistics"},
}

var rooms = []roomSeed{
	{Room: "SCI 105", Floor: "1"},
	{Room: "SCI 205", Floor: "2"},
	{Room: "SCI 305", Floor: "3"},
	{Room: "SCI 402", Floor: "4"},
	{Room: "SCI 404", Floor: "4"},
	{Room: "SCI 405", Floor: "4"},
}

var sections = []sectionSeed{
	{Course: "CMSC 126", Section: "A", Type: models.SectionTypeLecture, Room: "SCI 405", Faculty: "Alicaya, Erik", Day: "M TH", Time: "11:00 AM - 12:00 PM"},
	{Course: "CMSC 126", Section: "A1", Type: models.SectionTypeLaboratory, Room: "SCI 402", Faculty: "Alicaya, Erik", Day: "TH", Time: "3:00 PM - 6:00 PM"},
	{Course: "CMSC 126", Section: "A2", Type: models.SectionTypeLaboratory, Room: "SCI 402", Faculty: "Dulaca, Ryan", Day: "M", Time: "3:00 PM - 6:00 PM"},
	{Course: "CMSC 129", Section: "A", Type: models.SectionTypeLecture, Room: "SCI 405", Faculty: "Noel, Kyle", Day: "M TH", Time: "9:00 AM - 10:00 AM"},
	{Course: "CMSC 129", Section: "A1", Type: models.SectionTypeLaboratory, Room: "SCI 404", Faculty: "Roldan, Jace", Day: "T", Time: "9:00 AM - 12:00 PM"},
	{Course: "CMSC 129", Section: "A2", Type: models.SectionTypeLaboratory, Room: "SCI 404", Faculty: "Tan, Darmae", Day: "F", Time: "9:00 AM - 12:00 PM"},
	{Course: "MATH 101", Section: "A", Type: models.SectionTypeLecture, Room: "SCI 305", Faculty: "Prof. Garcia", Day: "T F", Time: "1:00 PM - 2:00 PM"},
	{Course: "STAT 101", Section: "A", Type: models.SectionTypeLecture, Room: "SCI 205", Faculty: "Dr. Lee", Day: "W", Time: "10:00 AM - 12:00 PM"},
	{Course: "BIO 101", Section: "A", Type: models.SectionTypeLecture, Room: "SCI 105", Faculty: "Dr. Santos", Day: "M W", Time: "2:00 PM - 3:00 PM"},
}

// Summary counts the records created by Run.
type Summary struct {
	Departments int `json:"departments"`
	Faculty     int `json:"faculty"`
	Rooms       int `json:"rooms"`
	Sections    int `json:"sections"`
}

// Seeder writes the sample catalogue.
type Seeder struct {
	departments departmentCreator
	faculty     facultyCreator
	rooms       roomCreator
	sections    sectionWriter
	logger      *zap.Logger
}

// New constructs a Seeder.
func New(departments departmentCreator, faculty facultyCreator, rooms roomCreator, sections sectionWriter, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{departments: departments, faculty: faculty, rooms: rooms, sections: sections, logger: logger}
}

// Run seeds an empty schedule. It refuses to touch a schedule that already
// holds sections.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	_, pagination, err := s.sections.List(ctx, models.SectionFilter{Page: 1, PageSize: 1})
	if err != nil {
		return nil, err
	}
	if pagination != nil && pagination.TotalCount > 0 {
		return nil, ErrAlreadySeeded
	}

	summary := &Summary{}
	departmentIDs := make(map[string]string, len(departments))
	for _, name := range departments {
		dept, err := s.departments.Create(ctx, service.DepartmentRequest{Name: name})
		if err != nil {
			return summary, fmt.Errorf("seed department %s: %w", name, err)
		}
		departmentIDs[name] = dept.ID
		summary.Departments++
	}

	facultyIDs := make(map[string]string, len(faculty))
	for _, f := range faculty {
		deptID := departmentIDs[f.Department]
		member, err := s.faculty.Create(ctx, service.FacultyRequest{Name: f.Name, DepartmentID: &deptID})
		if err != nil {
			return summary, fmt.Errorf("seed faculty %s: %w", f.Name, err)
		}
		facultyIDs[f.Name] = member.ID
		summary.Faculty++
	}

	roomIDs := make(map[string]string, len(rooms))
	for _, r := range rooms {
		room, err := s.rooms.Create(ctx, service.RoomRequest{Room: r.Room, Floor: r.Floor})
		if err != nil {
			return summary, fmt.Errorf("seed room %s: %w", r.Room, err)
		}
		roomIDs[r.Room] = room.ID
		summary.Rooms++
	}

	for _, sec := range sections {
		roomID := roomIDs[sec.Room]
		facultyID := facultyIDs[sec.Faculty]
		_, err := s.sections.Create(ctx, service.CreateSectionRequest{
			CourseCode: sec.Course,
			Section:    sec.Section,
			Type:       sec.Type,
			RoomID:     &roomID,
			FacultyID:  &facultyID,
			Day:        sec.Day,
			Time:       sec.Time,
		})
		if err != nil {
			return summary, fmt.Errorf("seed section %s %s: %w", sec.Course, sec.Section, err)
		}
		summary.Sections++
	}

	s.logger.Info("sample schedule seeded",
		zap.Int("departments", summary.Departments),
		zap.Int("faculty", summary.Faculty),
		zap.Int("rooms", summary.Rooms),
		zap.Int("sections", summary.Sections))
	return summary, nil
}
