package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseSectionLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.SectionDetail, error)
}

type courseSectionRemover interface {
	DeleteByLabel(ctx context.Context, courseID, label string) error
}

type timetableFlusher interface {
	InvalidateAllTimetables(ctx context.Context)
}

// CourseRequest is the payload for creating or renaming a course.
type CourseRequest struct {
	CourseCode string `json:"course_code" validate:"required,max=32"`
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo      courseRepository
	sections  courseSectionLister
	remover   courseSectionRemover
	cache     timetableFlusher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService creates a course service. remover handles deletion of a
// single section by label and is normally the SectionService.
func NewCourseService(repo courseRepository, sections courseSectionLister, remover courseSectionRemover, cache timetableFlusher, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, sections: sections, remover: remover, cache: cache, validator: validate, logger: logger}
}

// List returns paginated courses.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a course with its sections.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections.ListByCourse(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course sections")
	}
	if sections == nil {
		sections = []models.SectionDetail{}
	}
	return &models.CourseDetail{Course: *course, Sections: sections}, nil
}

// Create adds a course ensuring the code is unique.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	code := strings.ToUpper(strings.TrimSpace(req.CourseCode))
	if err := s.ensureCodeFree(ctx, code, ""); err != nil {
		return nil, err
	}

	course := &models.Course{CourseCode: code}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update renames a course.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(req.CourseCode))
	if err := s.ensureCodeFree(ctx, code, id); err != nil {
		return nil, err
	}

	course.CourseCode = code
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	// timetables embed the course code
	s.flush(ctx)
	return course, nil
}

// Delete removes a course together with its sections.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.flush(ctx)
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

// DeleteSection removes the section labelled label from the course.
func (s *CourseService) DeleteSection(ctx context.Context, courseID, label string) error {
	if _, err := s.find(ctx, courseID); err != nil {
		return err
	}
	return s.remover.DeleteByLabel(ctx, courseID, label)
}

func (s *CourseService) find(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *CourseService) ensureCodeFree(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course %s already exists", code))
	}
	return nil
}

func (s *CourseService) flush(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAllTimetables(ctx)
	}
}
