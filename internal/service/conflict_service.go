package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	"github.com/noah-isme/campus-scheduler-api/internal/schedule"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type assignmentFinder interface {
	FindAssignments(ctx context.Context, q models.AssignmentQuery) ([]models.Assignment, error)
}

// ScheduleSpec is a proposed meeting pattern for a faculty member, a room or
// both.
type ScheduleSpec struct {
	Days      []schedule.Day
	Range     schedule.TimeRange
	FacultyID string
	RoomID    string
}

// ConflictCheckRequest is the payload of the standalone conflict check.
type ConflictCheckRequest struct {
	Day       string `json:"day" validate:"max=64"`
	Time      string `json:"time" validate:"max=64"`
	FacultyID string `json:"faculty_id" validate:"omitempty,max=64"`
	RoomID    string `json:"room_id" validate:"omitempty,max=64"`
	ExcludeID string `json:"exclude_id" validate:"omitempty,max=64"`
}

// ConflictService detects double bookings of faculty members and rooms.
type ConflictService struct {
	repo      assignmentFinder
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewConflictService constructs a ConflictService.
func NewConflictService(repo assignmentFinder, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ConflictService {
	if validate == nil {
		validate = NewValidator(true)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{repo: repo, validator: validate, metrics: metrics, logger: logger}
}

// Check runs the detector for an API request. A request that names no day,
// no time or no resource has nothing to check and yields an empty result, and
// so does a day or time that does not parse.
func (s *ConflictService) Check(ctx context.Context, req ConflictCheckRequest) (*models.ConflictCheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}

	result := &models.ConflictCheckResult{Conflicts: []models.Conflict{}}
	days, err := schedule.ParseDays(strings.ToUpper(req.Day), false)
	if err != nil {
		return result, nil
	}
	rng, err := schedule.ParseTimeRange(req.Time)
	if err != nil {
		return result, nil
	}

	conflicts, err := s.CheckConflicts(ctx, days, rng, strings.TrimSpace(req.FacultyID), strings.TrimSpace(req.RoomID), strings.TrimSpace(req.ExcludeID))
	if err != nil {
		return nil, err
	}
	result.Conflicts = conflicts
	result.HasConflicts = len(conflicts) > 0
	return result, nil
}

// CheckFacultyConflicts reports sections taught by facultyID that overlap the
// proposed days and range.
func (s *ConflictService) CheckFacultyConflicts(ctx context.Context, days []schedule.Day, rng schedule.TimeRange, facultyID, excludeID string) ([]models.Conflict, error) {
	return s.FindConflicts(ctx, ScheduleSpec{Days: days, Range: rng, FacultyID: facultyID}, excludeID)
}

// CheckConflicts reports overlaps for the faculty member and the room, either
// of which may be empty.
func (s *ConflictService) CheckConflicts(ctx context.Context, days []schedule.Day, rng schedule.TimeRange, facultyID, roomID, excludeID string) ([]models.Conflict, error) {
	return s.FindConflicts(ctx, ScheduleSpec{Days: days, Range: rng, FacultyID: facultyID, RoomID: roomID}, excludeID)
}

// FindConflicts scans faculty assignments first and room assignments second,
// one proposed day at a time. Each (course, section) pair is reported once,
// at its first collision. Stored schedules that cannot be parsed are skipped.
// The only error returned is a failure to read assignments.
func (s *ConflictService) FindConflicts(ctx context.Context, proposed ScheduleSpec, excludeID string) ([]models.Conflict, error) {
	conflicts := []models.Conflict{}
	if len(proposed.Days) == 0 || !proposed.Range.Valid() || (proposed.FacultyID == "" && proposed.RoomID == "") {
		return conflicts, nil
	}

	seen := make(map[string]struct{})
	for _, target := range scanTargets(proposed) {
		for _, day := range proposed.Days {
			query := target.query
			query.DayContains = string(day)
			query.ExcludeID = excludeID

			start := time.Now()
			candidates, err := s.repo.FindAssignments(ctx, query)
			s.metrics.ObserveDBQuery("find_assignments", time.Since(start))
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule assignments")
			}

			for _, candidate := range candidates {
				if excludeID != "" && candidate.SectionID == excludeID {
					continue
				}
				existing, err := schedule.Parse(candidate.Schedule)
				if err != nil {
					s.metrics.RecordMalformedSchedule()
					s.logger.Debug("skipping unparseable schedule",
						zap.String("section_id", candidate.SectionID),
						zap.String("schedule", candidate.Schedule),
						zap.Error(err))
					continue
				}
				if !existing.HasDay(day) || !proposed.Range.Overlaps(existing.Range) {
					continue
				}

				key := candidate.CourseCode + "\x00" + candidate.Section
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				conflicts = append(conflicts, models.Conflict{
					Type:                 target.kind,
					ConflictingSectionID: candidate.SectionID,
					Course:               candidate.CourseCode,
					Section:              candidate.Section,
					Schedule:             candidate.Schedule,
					Room:                 candidate.RoomName,
					ConflictDay:          string(day),
				})
			}
		}
	}

	s.metrics.RecordConflictCheck(conflicts)
	if len(conflicts) > 0 {
		s.logger.Info("schedule conflicts detected",
			zap.String("faculty_id", proposed.FacultyID),
			zap.String("room_id", proposed.RoomID),
			zap.String("proposed", schedule.Schedule{Days: proposed.Days, Range: proposed.Range}.String()),
			zap.Int("conflicts", len(conflicts)))
	}
	return conflicts, nil
}

type scanTarget struct {
	kind  models.ConflictKind
	query models.AssignmentQuery
}

func scanTargets(proposed ScheduleSpec) []scanTarget {
	targets := make([]scanTarget, 0, 2)
	if proposed.FacultyID != "" {
		targets = append(targets, scanTarget{kind: models.ConflictKindFaculty, query: models.AssignmentQuery{FacultyID: proposed.FacultyID}})
	}
	if proposed.RoomID != "" {
		targets = append(targets, scanTarget{kind: models.ConflictKindRoom, query: models.AssignmentQuery{RoomID: proposed.RoomID}})
	}
	return targets
}
