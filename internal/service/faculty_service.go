package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultyDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.FacultyDetail, error)
	Create(ctx context.Context, member *models.Faculty) error
	Update(ctx context.Context, member *models.Faculty) error
	Delete(ctx context.Context, id string) error
}

type departmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// FacultyRequest is the payload for creating or updating a faculty member.
type FacultyRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	DepartmentID *string `json:"department_id" validate:"omitempty,max=64"`
}

// FacultyService manages instructors.
type FacultyService struct {
	repo        facultyRepository
	departments departmentFinder
	cache       timetableFlusher
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewFacultyService creates a faculty service.
func NewFacultyService(repo facultyRepository, departments departmentFinder, cache timetableFlusher, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, departments: departments, cache: cache, validator: validate, logger: logger}
}

// List returns paginated faculty members.
func (s *FacultyService) List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultyDetail, *models.Pagination, error) {
	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return members, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a faculty member by id.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.FacultyDetail, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	return member, nil
}

// Create adds a faculty member.
func (s *FacultyService) Create(ctx context.Context, req FacultyRequest) (*models.FacultyDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	member := &models.Faculty{Name: strings.TrimSpace(req.Name), DepartmentID: normalizeOptional(req.DepartmentID)}
	if err := s.ensureDepartment(ctx, member.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}
	return s.Get(ctx, member.ID)
}

// Update modifies a faculty member.
func (s *FacultyService) Update(ctx context.Context, id string, req FacultyRequest) (*models.FacultyDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	member := existing.Faculty
	member.Name = strings.TrimSpace(req.Name)
	member.DepartmentID = normalizeOptional(req.DepartmentID)
	if err := s.ensureDepartment(ctx, member.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes a faculty member. Their sections become unassigned.
func (s *FacultyService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faculty")
	}
	s.invalidate(ctx)
	s.logger.Info("faculty deleted", zap.String("faculty_id", id))
	return nil
}

func (s *FacultyService) ensureDepartment(ctx context.Context, id *string) error {
	if id == nil || s.departments == nil {
		return nil
	}
	if _, err := s.departments.FindByID(ctx, *id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return nil
}

// Room timetables embed faculty names, so a faculty change flushes every
// cached timetable.
func (s *FacultyService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAllTimetables(ctx)
	}
}
