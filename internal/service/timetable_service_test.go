package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type stubTimetableSource struct {
	byFaculty map[string][]models.SectionDetail
	byRoom    map[string][]models.SectionDetail
	calls     int
}

func (s *stubTimetableSource) ListByFaculty(ctx context.Context, facultyID string) ([]models.SectionDetail, error) {
	s.calls++
	return s.byFaculty[facultyID], nil
}

func (s *stubTimetableSource) ListByRoom(ctx context.Context, roomID string) ([]models.SectionDetail, error) {
	s.calls++
	return s.byRoom[roomID], nil
}

type memoryTimetableCache struct {
	entries map[string]models.Timetable
}

func (c *memoryTimetableCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	entry, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	*dest.(*models.Timetable) = entry
	return true, nil
}

func (c *memoryTimetableCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.entries[key] = *value.(*models.Timetable)
	return nil
}

type stubFacultyGetter map[string]string

func (s stubFacultyGetter) Get(ctx context.Context, id string) (*models.FacultyDetail, error) {
	if name, ok := s[id]; ok {
		return &models.FacultyDetail{Faculty: models.Faculty{ID: id, Name: name}}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
}

type stubRoomGetter map[string]string

func (s stubRoomGetter) Get(ctx context.Context, id string) (*models.Room, error) {
	if name, ok := s[id]; ok {
		return &models.Room{ID: id, Name: name}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
}

func sectionDetail(id, course, label, sched string) models.SectionDetail {
	return models.SectionDetail{
		Section:    models.Section{ID: id, Section: label, Type: models.SectionTypeLecture, Schedule: sched},
		CourseCode: course,
	}
}

func TestTimetableServiceFacultyOrdering(t *testing.T) {
	source := &stubTimetableSource{byFaculty: map[string][]models.SectionDetail{
		"f1": {
			sectionDetail("s1", "CS102", "A", "TH M | 1:00 PM - 2:00 PM"),
			sectionDetail("s2", "CS101", "A", "M | 9:00 AM - 10:00 AM"),
			sectionDetail("s3", "CS103", "B", "broken"),
			sectionDetail("s4", "CS104", "C", "T | 8:00 AM - 9:00 AM"),
		},
	}}
	svc := NewTimetableService(source, stubFacultyGetter{"f1": "John Doe"}, stubRoomGetter{}, nil, nil, zap.NewNop())

	timetable, err := svc.FacultyTimetable(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", timetable.OwnerName)
	assert.Equal(t, models.ConflictKindFaculty, timetable.OwnerKind)
	assert.Equal(t, 1, timetable.Skipped)

	var got []string
	for _, e := range timetable.Entries {
		got = append(got, e.Day+" "+e.Start+" "+e.Course)
	}
	assert.Equal(t, []string{
		"M 9:00 AM CS101",
		"M 1:00 PM CS102",
		"T 8:00 AM CS104",
		"TH 1:00 PM CS102",
	}, got)
	assert.Equal(t, "A", timetable.Entries[0].Section)
	assert.Equal(t, "C", timetable.Entries[2].Section)
}

func TestTimetableServiceReadThroughCache(t *testing.T) {
	source := &stubTimetableSource{byRoom: map[string][]models.SectionDetail{
		"r1": {sectionDetail("s1", "CS101", "A", "W | 10:00 AM - 11:00 AM")},
	}}
	cache := &memoryTimetableCache{entries: map[string]models.Timetable{}}
	svc := NewTimetableService(source, stubFacultyGetter{}, stubRoomGetter{"r1": "Room 101"}, cache, nil, zap.NewNop())

	first, err := svc.RoomTimetable(context.Background(), "r1")
	require.NoError(t, err)
	second, err := svc.RoomTimetable(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Entries, second.Entries)
	assert.Contains(t, cache.entries, "timetable:room:r1")
}

func TestTimetableServiceUnknownOwner(t *testing.T) {
	svc := NewTimetableService(&stubTimetableSource{}, stubFacultyGetter{}, stubRoomGetter{}, nil, nil, zap.NewNop())
	_, err := svc.FacultyTimetable(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestExportServiceRendersCSV(t *testing.T) {
	source := &stubTimetableSource{byFaculty: map[string][]models.SectionDetail{
		"f1": {sectionDetail("s1", "CS101", "A", "M TH | 11:00 AM - 12:00 PM")},
	}}
	timetables := NewTimetableService(source, stubFacultyGetter{"f1": "John Doe"}, stubRoomGetter{}, nil, nil, zap.NewNop())
	svc := NewExportService(timetables, zap.NewNop())

	file, err := svc.ExportFacultyTimetable(context.Background(), "f1", "CSV")
	require.NoError(t, err)
	assert.Equal(t, "timetable_faculty_john_doe.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,End,Course,Section,Type,Room,Faculty", lines[0])
	assert.Equal(t, "M,11:00 AM,12:00 PM,CS101,A,Lecture,,", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "TH,"))
}

func TestExportServiceRendersPDF(t *testing.T) {
	source := &stubTimetableSource{}
	timetables := NewTimetableService(source, stubFacultyGetter{}, stubRoomGetter{"r1": "Room 101"}, nil, nil, zap.NewNop())
	svc := NewExportService(timetables, zap.NewNop())

	file, err := svc.ExportRoomTimetable(context.Background(), "r1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))

	_, err = svc.ExportRoomTimetable(context.Background(), "r1", "xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
