package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
)

// RoomRepository manages persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms matching the filter along with the total count.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	var where whereBuilder
	if filter.Floor != "" {
		where.add("floor = ?", filter.Floor)
	}
	if filter.Search != "" {
		where.add("LOWER(room) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	base := "FROM rooms WHERE 1=1" + where.clause()

	order := orderBy(map[string]string{
		"room":       "room",
		"floor":      "floor",
		"created_at": "created_at",
	}, filter.SortBy, "room", filter.SortOrder, "ASC")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	q := executor(ctx, r.db)
	query := fmt.Sprintf("SELECT id, room, floor, created_at, updated_at %s ORDER BY %s LIMIT %d OFFSET %d", base, order, limit, offset)
	var rooms []models.Room
	if err := sqlx.SelectContext(ctx, q, &rooms, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, q, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// FindByID fetches a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, room, floor, created_at, updated_at FROM rooms WHERE id = $1`
	var room models.Room
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &room, query, id); err != nil {
		return nil, notFoundOnInvalidText(err)
	}
	return &room, nil
}

// ExistsByNameAndFloor checks whether another room already uses the
// (room, floor) pair.
func (r *RoomRepository) ExistsByNameAndFloor(ctx context.Context, name, floor, excludeID string) (bool, error) {
	query := "SELECT 1 FROM rooms WHERE LOWER(room) = LOWER($1) AND floor = $2"
	args := []interface{}{name, floor}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check room: %w", err)
	}
	return true, nil
}

// Create inserts a new room.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	const query = `INSERT INTO rooms (id, room, floor, created_at, updated_at) VALUES (:id, :room, :floor, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update modifies an existing room.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET room = :room, floor = :floor, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, room); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

// Delete removes a room. Sections held there keep existing without a room.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}
