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

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ExistsByNameAndFloor(ctx context.Context, name, floor, excludeID string) (bool, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

// RoomRequest is the payload for creating or updating a room.
type RoomRequest struct {
	Room  string `json:"room" validate:"required,max=64"`
	Floor string `json:"floor" validate:"required,max=32"`
}

// RoomService manages bookable rooms.
type RoomService struct {
	repo      roomRepository
	cache     timetableFlusher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService creates a room service.
func NewRoomService(repo roomRepository, cache timetableFlusher, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns paginated rooms.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a room by id.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// Create adds a room. The (room, floor) pair must be unique.
func (s *RoomService) Create(ctx context.Context, req RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room := &models.Room{Name: strings.TrimSpace(req.Room), Floor: strings.TrimSpace(req.Floor)}
	if err := s.ensureUnique(ctx, room, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	return room, nil
}

// Update renames or moves a room.
func (s *RoomService) Update(ctx context.Context, id string, req RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	room.Name = strings.TrimSpace(req.Room)
	room.Floor = strings.TrimSpace(req.Floor)
	if err := s.ensureUnique(ctx, room, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	s.invalidate(ctx)
	return room, nil
}

// Delete removes a room. Sections held there keep existing without a room.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}
	s.invalidate(ctx)
	s.logger.Info("room deleted", zap.String("room_id", id))
	return nil
}

func (s *RoomService) ensureUnique(ctx context.Context, room *models.Room, excludeID string) error {
	exists, err := s.repo.ExistsByNameAndFloor(ctx, room.Name, room.Floor, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room %s already exists on floor %s", room.Name, room.Floor))
	}
	return nil
}

// Faculty timetables embed room names, so a room change flushes every
// cached timetable.
func (s *RoomService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAllTimetables(ctx)
	}
}
