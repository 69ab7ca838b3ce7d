package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	"github.com/noah-isme/campus-scheduler-api/internal/schedule"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type timetableSectionSource interface {
	ListByFaculty(ctx context.Context, facultyID string) ([]models.SectionDetail, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.SectionDetail, error)
}

type facultyGetter interface {
	Get(ctx context.Context, id string) (*models.FacultyDetail, error)
}

type roomGetter interface {
	Get(ctx context.Context, id string) (*models.Room, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TimetableService builds weekly agendas for faculty members and rooms.
type TimetableService struct {
	sections timetableSectionSource
	faculty  facultyGetter
	rooms    roomGetter
	cache    timetableCache
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(sections timetableSectionSource, faculty facultyGetter, rooms roomGetter, cache timetableCache, metrics *MetricsService, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{sections: sections, faculty: faculty, rooms: rooms, cache: cache, metrics: metrics, logger: logger}
}

// FacultyTimetable returns the weekly timetable of a faculty member.
func (s *TimetableService) FacultyTimetable(ctx context.Context, facultyID string) (*models.Timetable, error) {
	return s.cached(ctx, models.ConflictKindFaculty, facultyID, func() (*models.Timetable, error) {
		member, err := s.faculty.Get(ctx, facultyID)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		sections, err := s.sections.ListByFaculty(ctx, facultyID)
		s.metrics.ObserveDBQuery("list_sections_by_faculty", time.Since(start))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty sections")
		}
		return s.build(models.ConflictKindFaculty, facultyID, member.Name, sections), nil
	})
}

// RoomTimetable returns the weekly timetable of a room.
func (s *TimetableService) RoomTimetable(ctx context.Context, roomID string) (*models.Timetable, error) {
	return s.cached(ctx, models.ConflictKindRoom, roomID, func() (*models.Timetable, error) {
		room, err := s.rooms.Get(ctx, roomID)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		sections, err := s.sections.ListByRoom(ctx, roomID)
		s.metrics.ObserveDBQuery("list_sections_by_room", time.Since(start))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room sections")
		}
		return s.build(models.ConflictKindRoom, roomID, room.Name, sections), nil
	})
}

func (s *TimetableService) cached(ctx context.Context, kind models.ConflictKind, ownerID string, load func() (*models.Timetable, error)) (*models.Timetable, error) {
	key := TimetableCacheKey(string(kind), ownerID)
	if s.cache != nil {
		var hit models.Timetable
		if ok, _ := s.cache.Get(ctx, key, &hit); ok {
			hit.CacheHit = true
			return &hit, nil
		}
	}

	timetable, err := load()
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, timetable, 0)
	}
	return timetable, nil
}

type timetableSlot struct {
	day   schedule.Day
	rng   schedule.TimeRange
	entry models.TimetableEntry
}

// build expands every section into one entry per meeting day, ordered by day
// of week and then start time. Unknown day tokens sort after Sunday.
func (s *TimetableService) build(kind models.ConflictKind, ownerID, ownerName string, sections []models.SectionDetail) *models.Timetable {
	timetable := &models.Timetable{OwnerID: ownerID, OwnerKind: kind, OwnerName: ownerName, Entries: []models.TimetableEntry{}}

	var slots []timetableSlot
	for _, section := range sections {
		parsed, err := schedule.Parse(section.Schedule)
		if err != nil {
			timetable.Skipped++
			s.metrics.RecordMalformedSchedule()
			s.logger.Debug("timetable skipping unparseable schedule", zap.String("section_id", section.ID), zap.String("schedule", section.Schedule))
			continue
		}
		for _, day := range parsed.Days {
			slots = append(slots, timetableSlot{
				day: day,
				rng: parsed.Range,
				entry: models.TimetableEntry{
					Day:         string(day),
					Start:       parsed.Range.Start.String(),
					End:         parsed.Range.End.String(),
					SectionID:   section.ID,
					Course:      section.CourseCode,
					Section:     section.Section.Section,
					Type:        section.Type,
					Room:        section.RoomName,
					FacultyName: section.FacultyName,
				},
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		di, dj := dayOrder(slots[i].day), dayOrder(slots[j].day)
		if di != dj {
			return di < dj
		}
		if slots[i].rng.Start != slots[j].rng.Start {
			return slots[i].rng.Start < slots[j].rng.Start
		}
		if slots[i].entry.Course != slots[j].entry.Course {
			return slots[i].entry.Course < slots[j].entry.Course
		}
		return slots[i].entry.Section < slots[j].entry.Section
	})
	for _, slot := range slots {
		timetable.Entries = append(timetable.Entries, slot.entry)
	}
	return timetable
}

func dayOrder(d schedule.Day) int {
	if idx := d.Index(); idx >= 0 {
		return idx
	}
	return len(schedule.Week())
}
