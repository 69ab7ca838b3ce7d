package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type memoryCourseStore struct {
	courses map[string]*models.Course
	nextID  int
}

func (m *memoryCourseStore) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryCourseStore) GetOrCreateByCode(ctx context.Context, code string) (*models.Course, error) {
	for _, c := range m.courses {
		if strings.EqualFold(c.CourseCode, code) {
			copy := *c
			return &copy, nil
		}
	}
	m.nextID++
	c := &models.Course{ID: fmt.Sprintf("course-%d", m.nextID), CourseCode: code}
	m.courses[c.ID] = c
	copy := *c
	return &copy, nil
}

type memorySectionStore struct {
	courses  *memoryCourseStore
	rooms    map[string]string
	sections map[string]*models.Section
	locks    [][]string
	nextID   int
	writes   int
}

func newMemorySectionStore() *memorySectionStore {
	return &memorySectionStore{
		courses: &memoryCourseStore{courses: map[string]*models.Course{
			"c1": {ID: "c1", CourseCode: "CS101"},
		}},
		rooms:    map[string]string{"r1": "Room 101", "r2": "Room 202"},
		sections: map[string]*models.Section{},
	}
}

func (m *memorySectionStore) add(id, courseID, label, sched string, facultyID, roomID *string) {
	m.sections[id] = &models.Section{ID: id, CourseID: courseID, Section: label, Type: models.SectionTypeLecture, Schedule: sched, FacultyID: facultyID, RoomID: roomID}
}

func (m *memorySectionStore) detail(s *models.Section) models.SectionDetail {
	d := models.SectionDetail{Section: *s}
	if c, ok := m.courses.courses[s.CourseID]; ok {
		d.CourseCode = c.CourseCode
	}
	if s.RoomID != nil {
		name := m.rooms[*s.RoomID]
		d.RoomName = &name
	}
	return d
}

func (m *memorySectionStore) sortedIDs() []string {
	ids := make([]string, 0, len(m.sections))
	for id := range m.sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *memorySectionStore) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error) {
	var out []models.SectionDetail
	for _, id := range m.sortedIDs() {
		out = append(out, m.detail(m.sections[id]))
	}
	return out, len(out), nil
}

func (m *memorySectionStore) FindByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	s, ok := m.sections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := m.detail(s)
	return &d, nil
}

func (m *memorySectionStore) FindByCourseAndLabel(ctx context.Context, courseID, label string) (*models.SectionDetail, error) {
	for _, s := range m.sections {
		if s.CourseID == courseID && s.Section == label {
			d := m.detail(s)
			return &d, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memorySectionStore) ExistsByCourseAndLabel(ctx context.Context, courseID, label, excludeID string) (bool, error) {
	for _, s := range m.sections {
		if s.CourseID == courseID && s.Section == label && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memorySectionStore) Create(ctx context.Context, section *models.Section) error {
	m.nextID++
	section.ID = fmt.Sprintf("new-%d", m.nextID)
	copy := *section
	m.sections[section.ID] = &copy
	m.writes++
	return nil
}

func (m *memorySectionStore) Update(ctx context.Context, section *models.Section) error {
	copy := *section
	m.sections[section.ID] = &copy
	m.writes++
	return nil
}

func (m *memorySectionStore) Delete(ctx context.Context, id string) error {
	delete(m.sections, id)
	return nil
}

func (m *memorySectionStore) WithinScheduleLock(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	m.locks = append(m.locks, keys)
	return fn(ctx)
}

func (m *memorySectionStore) FindAssignments(ctx context.Context, q models.AssignmentQuery) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, id := range m.sortedIDs() {
		s := m.sections[id]
		if q.FacultyID != "" && (s.FacultyID == nil || *s.FacultyID != q.FacultyID) {
			continue
		}
		if q.RoomID != "" && (s.RoomID == nil || *s.RoomID != q.RoomID) {
			continue
		}
		if !strings.Contains(s.Schedule, q.DayContains) || s.ID == q.ExcludeID {
			continue
		}
		d := m.detail(s)
		out = append(out, models.Assignment{
			SectionID: s.ID, CourseCode: d.CourseCode, Section: s.Section, Schedule: s.Schedule,
			FacultyID: s.FacultyID, RoomID: s.RoomID, RoomName: d.RoomName,
		})
	}
	return out, nil
}

type mapRoomFinder map[string]string

func (m mapRoomFinder) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if name, ok := m[id]; ok {
		return &models.Room{ID: id, Name: name}, nil
	}
	return nil, sql.ErrNoRows
}

type mapFacultyFinder map[string]string

func (m mapFacultyFinder) FindByID(ctx context.Context, id string) (*models.FacultyDetail, error) {
	if name, ok := m[id]; ok {
		return &models.FacultyDetail{Faculty: models.Faculty{ID: id, Name: name}}, nil
	}
	return nil, sql.ErrNoRows
}

type invalidationRecorder struct {
	keys []string
}

func (r *invalidationRecorder) InvalidateTimetables(ctx context.Context, kind string, ownerIDs ...string) {
	for _, id := range ownerIDs {
		if id != "" {
			r.keys = append(r.keys, TimetableCacheKey(kind, id))
		}
	}
}

func newSectionServiceFixture(store *memorySectionStore, locking bool) (*SectionService, *invalidationRecorder) {
	cache := &invalidationRecorder{}
	conflicts := NewConflictService(store, nil, nil, zap.NewNop())
	svc := NewSectionService(store, store.courses, mapRoomFinder(store.rooms),
		mapFacultyFinder{"f1": "John Doe", "f2": "Jane Roe"}, conflicts, cache,
		NewValidator(true), zap.NewNop(), SectionServiceOptions{Locking: locking, StrictDays: true})
	return svc, cache
}

func TestSectionServiceCreate(t *testing.T) {
	store := newMemorySectionStore()
	svc, cache := newSectionServiceFixture(store, true)

	section, err := svc.Create(context.Background(), CreateSectionRequest{
		CourseCode: "CMSC 126",
		Section:    " B ",
		Type:       models.SectionTypeLaboratory,
		RoomID:     strPtr("r1"),
		FacultyID:  strPtr("f1"),
		Day:        "m th",
		Time:       "11:00 AM - 12:00 PM",
	})
	require.NoError(t, err)
	assert.Equal(t, "M TH | 11:00 AM - 12:00 PM", section.Schedule)
	assert.Equal(t, "CMSC 126", section.CourseCode)
	assert.Equal(t, "B", section.Section.Section)
	require.NotNil(t, section.RoomName)
	assert.Equal(t, "Room 101", *section.RoomName)

	require.Len(t, store.locks, 1)
	assert.Equal(t, []string{"faculty:f1", "room:r1"}, store.locks[0])
	assert.Equal(t, []string{"timetable:faculty:f1", "timetable:room:r1"}, cache.keys)
}

func TestSectionServiceCreateRejectsFacultyConflict(t *testing.T) {
	store := newMemorySectionStore()
	store.add("s1", "c1", "A", "M | 10:00 AM - 11:30 AM", strPtr("f1"), strPtr("r1"))
	svc, cache := newSectionServiceFixture(store, true)

	_, err := svc.Create(context.Background(), CreateSectionRequest{
		CourseCode: "CS102",
		Section:    "A",
		Type:       models.SectionTypeLecture,
		FacultyID:  strPtr("f1"),
		Day:        "M",
		Time:       "11:00 AM - 12:00 PM",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrScheduleConflict))

	var conflictErr *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflictErr))
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, models.ConflictKindFaculty, conflictErr.Conflicts[0].Type)
	assert.Equal(t, "CS101", conflictErr.Conflicts[0].Course)
	assert.Equal(t, "M", conflictErr.Conflicts[0].ConflictDay)

	assert.Equal(t, 0, store.writes)
	assert.Empty(t, cache.keys)
}

func TestSectionServiceCreateRejectsRoomConflict(t *testing.T) {
	store := newMemorySectionStore()
	store.add("s1", "c1", "A", "T TH | 1:00 PM - 2:30 PM", strPtr("f2"), strPtr("r2"))
	svc, _ := newSectionServiceFixture(store, true)

	_, err := svc.Create(context.Background(), CreateSectionRequest{
		CourseID:  "c1",
		Section:   "B",
		Type:      models.SectionTypeLecture,
		RoomID:    strPtr("r2"),
		FacultyID: strPtr("f1"),
		Day:       "TH",
		Time:      "2:00 PM - 3:00 PM",
	})
	var conflictErr *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflictErr))
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, models.ConflictKindRoom, conflictErr.Conflicts[0].Type)
	assert.Equal(t, "TH", conflictErr.Conflicts[0].ConflictDay)
}

func TestSectionServiceCreateDuplicateLabel(t *testing.T) {
	store := newMemorySectionStore()
	store.add("s1", "c1", "A", "M | 10:00 AM - 11:30 AM", nil, nil)
	svc, _ := newSectionServiceFixture(store, true)

	_, err := svc.Create(context.Background(), CreateSectionRequest{
		CourseCode: "CS101",
		Section:    "A",
		Type:       models.SectionTypeLecture,
		Day:        "F",
		Time:       "8:00 AM - 9:00 AM",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDuplicate))
	assert.Equal(t, "Section A already exists for CS101", appErrors.FromError(err).Message)
}

func TestSectionServiceCreateValidation(t *testing.T) {
	store := newMemorySectionStore()
	svc, _ := newSectionServiceFixture(store, true)

	cases := map[string]CreateSectionRequest{
		"inverted range": {CourseCode: "CS101", Section: "Z", Type: models.SectionTypeLecture, Day: "M", Time: "11:00 AM - 10:00 AM"},
		"unknown day":    {CourseCode: "CS101", Section: "Z", Type: models.SectionTypeLecture, Day: "X", Time: "10:00 AM - 11:00 AM"},
		"bad type":       {CourseCode: "CS101", Section: "Z", Type: "Seminar", Day: "M", Time: "10:00 AM - 11:00 AM"},
		"no course":      {Section: "Z", Type: models.SectionTypeLecture, Day: "M", Time: "10:00 AM - 11:00 AM"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
	assert.Empty(t, store.locks)
}

func TestSectionServiceCreateUnknownRoom(t *testing.T) {
	store := newMemorySectionStore()
	svc, _ := newSectionServiceFixture(store, true)

	_, err := svc.Create(context.Background(), CreateSectionRequest{
		CourseCode: "CS101", Section: "C", Type: models.SectionTypeLecture,
		RoomID: strPtr("missing"), Day: "M", Time: "10:00 AM - 11:00 AM",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSectionServiceLockingDisabled(t *testing.T) {
	store := newMemorySectionStore()
	svc, _ := newSectionServiceFixture(store, false)

	_, err := svc.Create(context.Background(), CreateSectionRequest{
		CourseID: "c1", Section: "D", Type: models.SectionTypeLecture,
		FacultyID: strPtr("f1"), Day: "W", Time: "9:00 AM - 10:00 AM",
	})
	require.NoError(t, err)
	require.Len(t, store.locks, 1)
	assert.Nil(t, store.locks[0])
}

func TestSectionServicePatchTimeIgnoresItself(t *testing.T) {
	store := newMemorySectionStore()
	store.add("s1", "c1", "A", "M | 10:00 AM - 11:30 AM", strPtr("f1"), strPtr("r1"))
	svc, cache := newSectionServiceFixture(store, true)

	updated, err := svc.Patch(context.Background(), "s1", PatchSectionRequest{Time: strPtr("10:30 AM - 12:00 PM")})
	require.NoError(t, err)
	assert.Equal(t, "M | 10:30 AM - 12:00 PM", updated.Schedule)
	assert.Equal(t, "A", updated.Section.Section)
	assert.Contains(t, cache.keys, "timetable:faculty:f1")
}

func TestSectionServicePatchMovesRoom(t *testing.T) {
	store := newMemorySectionStore()
	store.add("s1", "c1", "A", "M | 10:00 AM - 11:30 AM", strPtr("f1"), strPtr("r1"))
	svc, cache := newSectionServiceFixture(store, true)

	updated, err := svc.Patch(context.Background(), "s1", PatchSectionRequest{RoomID: strPtr("r2")})
	require.NoError(t, err)
	require.NotNil(t, updated.RoomID)
	assert.Equal(t, "r2", *updated.RoomID)
	assert.Contains(t, cache.keys, "timetable:room:r2")
	assert.Contains(t, cache.keys, "timetable:room:r1")
}

func TestSectionServicePatchMalformedStoredSchedule(t *testing.T) {
	store := newMemorySectionStore()
	store.add("s1", "c1", "A", "MWF 10-11", strPtr("f1"), nil)
	svc, _ := newSectionServiceFixture(store, true)

	_, err := svc.Patch(context.Background(), "s1", PatchSectionRequest{Day: strPtr("M")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	updated, err := svc.Patch(context.Background(), "s1", PatchSectionRequest{Type: sectionTypePtr(models.SectionTypeLaboratory)})
	require.NoError(t, err)
	assert.Equal(t, "MWF 10-11", updated.Schedule)
	assert.Equal(t, models.SectionTypeLaboratory, updated.Type)

	updated, err = svc.Patch(context.Background(), "s1", PatchSectionRequest{Day: strPtr("M W F"), Time: strPtr("10:00 AM - 11:00 AM")})
	require.NoError(t, err)
	assert.Equal(t, "M W F | 10:00 AM - 11:00 AM", updated.Schedule)
}

func TestSectionServiceReplaceConflict(t *testing.T) {
	store := newMemorySectionStore()
	store.add("s1", "c1", "A", "M | 10:00 AM - 11:30 AM", strPtr("f1"), strPtr("r1"))
	store.add("s2", "c1", "B", "W | 10:00 AM - 11:30 AM", strPtr("f2"), strPtr("r2"))
	svc, _ := newSectionServiceFixture(store, true)

	_, err := svc.Replace(context.Background(), "s2", CreateSectionRequest{
		CourseID: "c1", Section: "B", Type: models.SectionTypeLecture,
		RoomID: strPtr("r1"), FacultyID: strPtr("f2"), Day: "M", Time: "11:00 AM - 12:00 PM",
	})
	var conflictErr *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, "s1", conflictErr.Conflicts[0].ConflictingSectionID)
	assert.Equal(t, "W | 10:00 AM - 11:30 AM", store.sections["s2"].Schedule)

	_, err = svc.Replace(context.Background(), "missing", CreateSectionRequest{
		CourseID: "c1", Section: "B", Type: models.SectionTypeLecture, Day: "M", Time: "11:00 AM - 12:00 PM",
	})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSectionServiceDelete(t *testing.T) {
	store := newMemorySectionStore()
	store.add("s1", "c1", "A", "M | 10:00 AM - 11:30 AM", strPtr("f1"), strPtr("r1"))
	svc, cache := newSectionServiceFixture(store, true)

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Empty(t, store.sections)
	assert.Equal(t, []string{"timetable:faculty:f1", "timetable:room:r1"}, cache.keys)

	err := svc.Delete(context.Background(), "s1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSectionServiceDeleteByLabel(t *testing.T) {
	store := newMemorySectionStore()
	store.add("s1", "c1", "A", "M | 10:00 AM - 11:30 AM", nil, nil)
	svc, _ := newSectionServiceFixture(store, true)

	err := svc.DeleteByLabel(context.Background(), "c1", "Z")
	require.Error(t, err)
	assert.Equal(t, "Section not found", appErrors.FromError(err).Message)

	require.NoError(t, svc.DeleteByLabel(context.Background(), "c1", "A"))
	assert.Empty(t, store.sections)
}

func sectionTypePtr(t models.SectionType) *models.SectionType { return &t }
