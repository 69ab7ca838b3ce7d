package seed

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	"github.com/noah-isme/campus-scheduler-api/internal/schedule"
	"github.com/noah-isme/campus-scheduler-api/internal/service"
)

type recorder struct {
	seq      int
	existing int
	sections []service.CreateSectionRequest
}

func (r *recorder) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

type departmentFake struct{ *recorder }

func (f departmentFake) Create(ctx context.Context, req service.DepartmentRequest) (*models.Department, error) {
	return &models.Department{ID: f.nextID("dept"), Name: req.Name}, nil
}

type facultyFake struct{ *recorder }

func (f facultyFake) Create(ctx context.Context, req service.FacultyRequest) (*models.FacultyDetail, error) {
	return &models.FacultyDetail{Faculty: models.Faculty{ID: f.nextID("fac"), Name: req.Name, DepartmentID: req.DepartmentID}}, nil
}

type roomFake struct{ *recorder }

func (f roomFake) Create(ctx context.Context, req service.RoomRequest) (*models.Room, error) {
	return &models.Room{ID: f.nextID("room"), Name: req.Room, Floor: req.Floor}, nil
}

type sectionFake struct{ *recorder }

func (f sectionFake) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error) {
	return nil, models.NewPagination(filter.Page, filter.PageSize, f.existing), nil
}

func (f sectionFake) Create(ctx context.Context, req service.CreateSectionRequest) (*models.SectionDetail, error) {
	f.sections = append(f.sections, req)
	return &models.SectionDetail{Section: models.Section{ID: f.nextID("sec"), Section: req.Section}}, nil
}

func newSeeder(rec *recorder) *Seeder {
	return New(departmentFake{rec}, facultyFake{rec}, roomFake{rec}, sectionFake{rec}, nil)
}

func TestRunSeedsEmptySchedule(t *testing.T) {
	rec := &recorder{}
	summary, err := newSeeder(rec).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(departments), summary.Departments)
	assert.Equal(t, len(faculty), summary.Faculty)
	assert.Equal(t, len(rooms), summary.Rooms)
	assert.Equal(t, len(sections), summary.Sections)
	require.Len(t, rec.sections, len(sections))

	first := rec.sections[0]
	assert.Equal(t, "CMSC 126", first.CourseCode)
	assert.Equal(t, "M TH", first.Day)
	require.NotNil(t, first.FacultyID)
	require.NotNil(t, first.RoomID)
	assert.NotEmpty(t, *first.FacultyID)
	assert.NotEmpty(t, *first.RoomID)
}

func TestRunRefusesPopulatedSchedule(t *testing.T) {
	rec := &recorder{existing: 3}
	_, err := newSeeder(rec).Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySeeded)
	assert.Empty(t, rec.sections)
}

func TestSampleSectionsDoNotCollide(t *testing.T) {
	parsed := make([]schedule.Schedule, len(sections))
	for i, sec := range sections {
		sched, err := schedule.FromParts(sec.Day, sec.Time, true)
		require.NoError(t, err, "%s %s", sec.Course, sec.Section)
		parsed[i] = sched
	}
	for i := range sections {
		for j := i + 1; j < len(sections); j++ {
			if !parsed[i].Collides(parsed[j]) {
				continue
			}
			a, b := sections[i], sections[j]
			assert.NotEqual(t, a.Faculty, b.Faculty, "%s %s vs %s %s share faculty", a.Course, a.Section, b.Course, b.Section)
			assert.NotEqual(t, a.Room, b.Room, "%s %s vs %s %s share room", a.Course, a.Section, b.Course, b.Section)
		}
	}
}
