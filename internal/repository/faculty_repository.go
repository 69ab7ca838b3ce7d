package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
)

const facultyDetailSelect = `SELECT f.id, f.name, f.department_id, f.created_at, f.updated_at, d.name AS department_name
	FROM faculty f LEFT JOIN departments d ON d.id = f.department_id`

// FacultyRepository manages persistence for faculty members.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns faculty members matching the filter along with the total count.
func (r *FacultyRepository) List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultyDetail, int, error) {
	var where whereBuilder
	if filter.DepartmentID != "" {
		where.add("f.department_id = ?", filter.DepartmentID)
	}
	if filter.Search != "" {
		where.add("LOWER(f.name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	conditions := " WHERE 1=1" + where.clause()

	order := orderBy(map[string]string{
		"name":       "f.name",
		"department": "d.name",
		"created_at": "f.created_at",
	}, filter.SortBy, "name", filter.SortOrder, "ASC")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	q := executor(ctx, r.db)
	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", facultyDetailSelect, conditions, order, limit, offset)
	var faculty []models.FacultyDetail
	if err := sqlx.SelectContext(ctx, q, &faculty, query, where.args...); err != nil {
		if invalidText(err) {
			return []models.FacultyDetail{}, 0, nil
		}
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, q, &total, "SELECT COUNT(*) FROM faculty f"+conditions, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}
	return faculty, total, nil
}

// FindByID fetches a faculty member with the department name.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.FacultyDetail, error) {
	var member models.FacultyDetail
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &member, facultyDetailSelect+" WHERE f.id = $1", id); err != nil {
		return nil, notFoundOnInvalidText(err)
	}
	return &member, nil
}

// Create inserts a new faculty member.
func (r *FacultyRepository) Create(ctx context.Context, member *models.Faculty) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now

	const query = `INSERT INTO faculty (id, name, department_id, created_at, updated_at) VALUES (:id, :name, :department_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, member); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// Update modifies an existing faculty member.
func (r *FacultyRepository) Update(ctx context.Context, member *models.Faculty) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faculty SET name = :name, department_id = :department_id, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, member); err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return nil
}

// Delete removes a faculty member. Their sections become unassigned.
func (r *FacultyRepository) Delete(ctx context.Context, id string) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM faculty WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete faculty: %w", err)
	}
	return nil
}
