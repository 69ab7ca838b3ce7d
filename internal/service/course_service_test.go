package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type mockCourseRepo struct {
	courses map[string]*models.Course
	deleted []string
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range m.courses {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	for id, c := range m.courses {
		if strings.EqualFold(c.CourseCode, code) && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "new"
	copy := *course
	m.courses[course.ID] = &copy
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	copy := *course
	m.courses[course.ID] = &copy
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	delete(m.courses, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type stubSectionLister map[string][]models.SectionDetail

func (s stubSectionLister) ListByCourse(ctx context.Context, courseID string) ([]models.SectionDetail, error) {
	return s[courseID], nil
}

type recordingRemover struct {
	calls []string
}

func (r *recordingRemover) DeleteByLabel(ctx context.Context, courseID, label string) error {
	r.calls = append(r.calls, courseID+"/"+label)
	return nil
}

type flushCounter struct{ n int }

func (f *flushCounter) InvalidateAllTimetables(ctx context.Context) { f.n++ }

func newCourseServiceFixture() (*CourseService, *mockCourseRepo, *recordingRemover, *flushCounter) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": {ID: "c1", CourseCode: "CS101"}}}
	sections := stubSectionLister{"c1": {{Section: models.Section{ID: "s1", CourseID: "c1", Section: "A", Schedule: "M | 10:00 AM - 11:30 AM"}, CourseCode: "CS101"}}}
	remover := &recordingRemover{}
	flush := &flushCounter{}
	return NewCourseService(repo, sections, remover, flush, nil, zap.NewNop()), repo, remover, flush
}

func TestCourseServiceGetIncludesSections(t *testing.T) {
	svc, _, _, _ := newCourseServiceFixture()
	detail, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "CS101", detail.CourseCode)
	require.Len(t, detail.Sections, 1)
	assert.Equal(t, "A", detail.Sections[0].Section.Section)

	_, err = svc.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCourseServiceCreate(t *testing.T) {
	svc, _, _, _ := newCourseServiceFixture()

	course, err := svc.Create(context.Background(), CourseRequest{CourseCode: " cmsc 126 "})
	require.NoError(t, err)
	assert.Equal(t, "CMSC 126", course.CourseCode)

	_, err = svc.Create(context.Background(), CourseRequest{CourseCode: "cs101"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Create(context.Background(), CourseRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCourseServiceUpdateFlushesTimetables(t *testing.T) {
	svc, repo, _, flush := newCourseServiceFixture()
	course, err := svc.Update(context.Background(), "c1", CourseRequest{CourseCode: "CS102"})
	require.NoError(t, err)
	assert.Equal(t, "CS102", course.CourseCode)
	assert.Equal(t, "CS102", repo.courses["c1"].CourseCode)
	assert.Equal(t, 1, flush.n)
}

func TestCourseServiceDelete(t *testing.T) {
	svc, repo, _, flush := newCourseServiceFixture()
	require.NoError(t, svc.Delete(context.Background(), "c1"))
	assert.Equal(t, []string{"c1"}, repo.deleted)
	assert.Equal(t, 1, flush.n)

	err := svc.Delete(context.Background(), "c1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCourseServiceDeleteSection(t *testing.T) {
	svc, _, remover, _ := newCourseServiceFixture()
	require.NoError(t, svc.DeleteSection(context.Background(), "c1", "A"))
	assert.Equal(t, []string{"c1/A"}, remover.calls)

	err := svc.DeleteSection(context.Background(), "missing", "A")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Len(t, remover.calls, 1)
}
