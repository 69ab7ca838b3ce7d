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

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the filter along with the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var where whereBuilder
	if filter.Search != "" {
		where.add("LOWER(course_code) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	base := "FROM courses WHERE 1=1" + where.clause()

	order := orderBy(map[string]string{
		"course_code": "course_code",
		"created_at":  "created_at",
		"updated_at":  "updated_at",
	}, filter.SortBy, "course_code", filter.SortOrder, "ASC")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	q := executor(ctx, r.db)
	query := fmt.Sprintf("SELECT id, course_code, created_at, updated_at %s ORDER BY %s LIMIT %d OFFSET %d", base, order, limit, offset)
	var courses []models.Course
	if err := sqlx.SelectContext(ctx, q, &courses, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, q, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, course_code, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &course, query, id); err != nil {
		return nil, notFoundOnInvalidText(err)
	}
	return &course, nil
}

// FindByCode fetches a course by its code, ignoring case.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	const query = `SELECT id, course_code, created_at, updated_at FROM courses WHERE UPPER(course_code) = UPPER($1)`
	var course models.Course
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCode checks whether another course already uses code.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM courses WHERE UPPER(course_code) = UPPER($1)"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// GetOrCreateByCode returns the course with code, inserting it first when it
// does not exist yet.
func (r *CourseRepository) GetOrCreateByCode(ctx context.Context, code string) (*models.Course, error) {
	course, err := r.FindByCode(ctx, code)
	if err == nil {
		return course, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find course by code: %w", err)
	}

	course = &models.Course{CourseCode: code}
	if err := r.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, course_code, created_at, updated_at) VALUES (:id, :course_code, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET course_code = :course_code, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course. Its sections are removed by the foreign key cascade.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
