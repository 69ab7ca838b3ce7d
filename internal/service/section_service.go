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
	"github.com/noah-isme/campus-scheduler-api/internal/schedule"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SectionDetail, error)
	FindByCourseAndLabel(ctx context.Context, courseID, label string) (*models.SectionDetail, error)
	ExistsByCourseAndLabel(ctx context.Context, courseID, label, excludeID string) (bool, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, id string) error
	WithinScheduleLock(ctx context.Context, keys []string, fn func(ctx context.Context) error) error
}

type sectionCourseStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	GetOrCreateByCode(ctx context.Context, code string) (*models.Course, error)
}

type roomFinder interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type facultyFinder interface {
	FindByID(ctx context.Context, id string) (*models.FacultyDetail, error)
}

type conflictFinder interface {
	FindConflicts(ctx context.Context, proposed ScheduleSpec, excludeID string) ([]models.Conflict, error)
}

type timetableInvalidator interface {
	InvalidateTimetables(ctx context.Context, kind string, ownerIDs ...string)
}

// CreateSectionRequest is the payload for creating or replacing a section.
// The course is referenced by id or by code; an unknown code creates the
// course.
type CreateSectionRequest struct {
	CourseID   string             `json:"course_id" validate:"required_without=CourseCode,max=64"`
	CourseCode string             `json:"course_code" validate:"required_without=CourseID,max=32"`
	Section    string             `json:"section" validate:"required,max=16"`
	Type       models.SectionType `json:"type" validate:"required,oneof=Lecture Laboratory"`
	RoomID     *string            `json:"room_id" validate:"omitempty,max=64"`
	FacultyID  *string            `json:"faculty_id" validate:"omitempty,max=64"`
	Day        string             `json:"day" validate:"required,daytokens"`
	Time       string             `json:"time" validate:"required,timerange"`
}

// PatchSectionRequest updates only the fields present. An empty room_id or
// faculty_id clears the assignment.
type PatchSectionRequest struct {
	CourseID   *string             `json:"course_id" validate:"omitempty,max=64"`
	CourseCode *string             `json:"course_code" validate:"omitempty,max=32"`
	Section    *string             `json:"section" validate:"omitempty,max=16"`
	Type       *models.SectionType `json:"type" validate:"omitempty,oneof=Lecture Laboratory"`
	RoomID     *string             `json:"room_id" validate:"omitempty,max=64"`
	FacultyID  *string             `json:"faculty_id" validate:"omitempty,max=64"`
	Day        *string             `json:"day" validate:"omitempty,daytokens"`
	Time       *string             `json:"time" validate:"omitempty,timerange"`
}

// SectionService owns the section write path: validation, duplicate and
// conflict checks and the write itself, all under the schedule lock.
type SectionService struct {
	repo       sectionRepository
	courses    sectionCourseStore
	rooms      roomFinder
	faculty    facultyFinder
	conflicts  conflictFinder
	cache      timetableInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
	locking    bool
	strictDays bool
}

// SectionServiceOptions tunes the write path.
type SectionServiceOptions struct {
	Locking    bool
	StrictDays bool
}

// NewSectionService constructs a SectionService.
func NewSectionService(repo sectionRepository, courses sectionCourseStore, rooms roomFinder, faculty facultyFinder, conflicts conflictFinder, cache timetableInvalidator, validate *validator.Validate, logger *zap.Logger, opts SectionServiceOptions) *SectionService {
	if validate == nil {
		validate = NewValidator(opts.StrictDays)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{
		repo:       repo,
		courses:    courses,
		rooms:      rooms,
		faculty:    faculty,
		conflicts:  conflicts,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		locking:    opts.Locking,
		strictDays: opts.StrictDays,
	}
}

// List returns sections matching the filter.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error) {
	filter.Day = strings.ToUpper(strings.TrimSpace(filter.Day))
	sections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a section by id.
func (s *SectionService) Get(ctx context.Context, id string) (*models.SectionDetail, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Create validates and stores a new section.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	sched, err := s.parseSchedule(req.Day, req.Time)
	if err != nil {
		return nil, err
	}

	draft := sectionDraft{
		section: models.Section{
			CourseID:  strings.TrimSpace(req.CourseID),
			Section:   strings.TrimSpace(req.Section),
			Type:      req.Type,
			RoomID:    normalizeOptional(req.RoomID),
			FacultyID: normalizeOptional(req.FacultyID),
		},
		courseCode: strings.ToUpper(strings.TrimSpace(req.CourseCode)),
		schedule:   sched,
	}
	if err := s.write(ctx, &draft, nil); err != nil {
		return nil, err
	}
	s.logger.Info("section created",
		zap.String("section_id", draft.section.ID),
		zap.String("course", draft.courseCode),
		zap.String("section", draft.section.Section),
		zap.String("schedule", draft.section.Schedule))
	return s.Get(ctx, draft.section.ID)
}

// Replace overwrites every attribute of an existing section.
func (s *SectionService) Replace(ctx context.Context, id string, req CreateSectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sched, err := s.parseSchedule(req.Day, req.Time)
	if err != nil {
		return nil, err
	}

	draft := sectionDraft{
		section: models.Section{
			ID:        existing.ID,
			CourseID:  strings.TrimSpace(req.CourseID),
			Section:   strings.TrimSpace(req.Section),
			Type:      req.Type,
			RoomID:    normalizeOptional(req.RoomID),
			FacultyID: normalizeOptional(req.FacultyID),
			CreatedAt: existing.CreatedAt,
		},
		courseCode: strings.ToUpper(strings.TrimSpace(req.CourseCode)),
		schedule:   sched,
	}
	if err := s.write(ctx, &draft, &existing.Section); err != nil {
		return nil, err
	}
	s.logger.Info("section replaced", zap.String("section_id", id), zap.String("schedule", draft.section.Schedule))
	return s.Get(ctx, id)
}

// Patch applies a partial update. Missing day or time fall back to the stored
// schedule, which must then be parseable.
func (s *SectionService) Patch(ctx context.Context, id string, req PatchSectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	draft := sectionDraft{section: existing.Section, courseCode: existing.CourseCode}
	if req.CourseID != nil && strings.TrimSpace(*req.CourseID) != "" {
		draft.section.CourseID = strings.TrimSpace(*req.CourseID)
		draft.courseCode = ""
	} else if req.CourseCode != nil && strings.TrimSpace(*req.CourseCode) != "" {
		draft.section.CourseID = ""
		draft.courseCode = strings.ToUpper(strings.TrimSpace(*req.CourseCode))
	}
	if req.Section != nil {
		draft.section.Section = strings.TrimSpace(*req.Section)
	}
	if req.Type != nil {
		draft.section.Type = *req.Type
	}
	if req.RoomID != nil {
		draft.section.RoomID = normalizeOptional(req.RoomID)
	}
	if req.FacultyID != nil {
		draft.section.FacultyID = normalizeOptional(req.FacultyID)
	}
	if draft.section.Section == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section label must not be empty")
	}

	if req.Day == nil && req.Time == nil {
		draft.schedule, err = schedule.Parse(existing.Schedule)
		if err != nil {
			// keep the legacy value untouched when the schedule is not being changed
			draft.raw = existing.Schedule
		}
	} else {
		current, parseErr := schedule.Parse(existing.Schedule)
		if parseErr != nil && (req.Day == nil || req.Time == nil) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "stored schedule is malformed; provide both day and time")
		}
		day, timeRange := schedule.JoinDays(current.Days), current.Range.String()
		if req.Day != nil {
			day = *req.Day
		}
		if req.Time != nil {
			timeRange = *req.Time
		}
		if draft.schedule, err = s.parseSchedule(day, timeRange); err != nil {
			return nil, err
		}
	}

	if err := s.write(ctx, &draft, &existing.Section); err != nil {
		return nil, err
	}
	s.logger.Info("section updated", zap.String("section_id", id), zap.String("schedule", draft.section.Schedule))
	return s.Get(ctx, id)
}

// Delete removes a section by id.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, &existing.Section)
}

// DeleteByLabel removes the section of a course identified by its label.
func (s *SectionService) DeleteByLabel(ctx context.Context, courseID, label string) error {
	existing, err := s.repo.FindByCourseAndLabel(ctx, courseID, strings.TrimSpace(label))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return s.remove(ctx, &existing.Section)
}

func (s *SectionService) remove(ctx context.Context, section *models.Section) error {
	if err := s.repo.Delete(ctx, section.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	s.invalidate(ctx, section)
	s.logger.Info("section deleted", zap.String("section_id", section.ID), zap.String("section", section.Section))
	return nil
}

// sectionDraft is a section about to be written. raw, when set, is persisted
// verbatim instead of the canonical form of schedule.
type sectionDraft struct {
	section    models.Section
	courseCode string
	schedule   schedule.Schedule
	raw        string
}

func (s *SectionService) parseSchedule(day, timeRange string) (schedule.Schedule, error) {
	sched, err := schedule.FromParts(strings.ToUpper(day), timeRange, s.strictDays)
	if err != nil {
		return schedule.Schedule{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day or time")
	}
	return sched, nil
}

// write runs the duplicate check, the conflict scan and the insert or update
// in one transaction holding the faculty and room locks. previous is nil for
// inserts.
func (s *SectionService) write(ctx context.Context, draft *sectionDraft, previous *models.Section) error {
	if err := s.ensureResources(ctx, &draft.section); err != nil {
		return err
	}
	if draft.raw != "" {
		draft.section.Schedule = draft.raw
	} else {
		draft.section.Schedule = draft.schedule.String()
	}

	err := s.repo.WithinScheduleLock(ctx, s.lockKeys(&draft.section), func(ctx context.Context) error {
		course, err := s.resolveCourse(ctx, draft)
		if err != nil {
			return err
		}
		draft.section.CourseID = course.ID
		draft.courseCode = course.CourseCode

		excludeID := ""
		if previous != nil {
			excludeID = previous.ID
		}
		exists, err := s.repo.ExistsByCourseAndLabel(ctx, course.ID, draft.section.Section, excludeID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section label")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrDuplicate, fmt.Sprintf("Section %s already exists for %s", draft.section.Section, course.CourseCode))
		}

		if draft.raw == "" {
			conflicts, err := s.conflicts.FindConflicts(ctx, ScheduleSpec{
				Days:      draft.schedule.Days,
				Range:     draft.schedule.Range,
				FacultyID: derefString(draft.section.FacultyID),
				RoomID:    derefString(draft.section.RoomID),
			}, excludeID)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return scheduleConflictError(conflicts)
			}
		}

		if previous == nil {
			err = s.repo.Create(ctx, &draft.section)
		} else {
			err = s.repo.Update(ctx, &draft.section)
		}
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save section")
		}
		return nil
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save section")
	}

	s.invalidate(ctx, &draft.section)
	if previous != nil {
		s.invalidate(ctx, previous)
	}
	return nil
}

func (s *SectionService) resolveCourse(ctx context.Context, draft *sectionDraft) (*models.Course, error) {
	if draft.section.CourseID != "" {
		course, err := s.courses.FindByID(ctx, draft.section.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		return course, nil
	}
	course, err := s.courses.GetOrCreateByCode(ctx, draft.courseCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course")
	}
	return course, nil
}

func (s *SectionService) ensureResources(ctx context.Context, section *models.Section) error {
	if section.RoomID != nil {
		if _, err := s.rooms.FindByID(ctx, *section.RoomID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "room not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
		}
	}
	if section.FacultyID != nil {
		if _, err := s.faculty.FindByID(ctx, *section.FacultyID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
		}
	}
	return nil
}

func (s *SectionService) lockKeys(section *models.Section) []string {
	if !s.locking {
		return nil
	}
	var keys []string
	if section.FacultyID != nil {
		keys = append(keys, "faculty:"+*section.FacultyID)
	}
	if section.RoomID != nil {
		keys = append(keys, "room:"+*section.RoomID)
	}
	return keys
}

func (s *SectionService) invalidate(ctx context.Context, section *models.Section) {
	if s.cache == nil || section == nil {
		return
	}
	s.cache.InvalidateTimetables(ctx, string(models.ConflictKindFaculty), derefString(section.FacultyID))
	s.cache.InvalidateTimetables(ctx, string(models.ConflictKindRoom), derefString(section.RoomID))
}

func scheduleConflictError(conflicts []models.Conflict) error {
	message := fmt.Sprintf("schedule conflicts with %d existing section(s)", len(conflicts))
	return appErrors.Wrap(&models.ScheduleConflictError{Message: message, Conflicts: conflicts},
		appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, message)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
