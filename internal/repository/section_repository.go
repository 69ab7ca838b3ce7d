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

const sectionDetailColumns = `cs.id, cs.course_id, cs.section, cs.type, cs.room_id, cs.faculty_id, cs.schedule, cs.created_at, cs.updated_at,
	c.course_code, r.room AS room_name, f.name AS faculty_name`

const sectionDetailFrom = `FROM class_sections cs
	JOIN courses c ON c.id = cs.course_id
	LEFT JOIN rooms r ON r.id = cs.room_id
	LEFT JOIN faculty f ON f.id = cs.faculty_id`

// SectionRepository manages persistence for class sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// List returns sections matching the filter along with the total count.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error) {
	var where whereBuilder
	if filter.CourseID != "" {
		where.add("cs.course_id = ?", filter.CourseID)
	}
	if filter.FacultyID != "" {
		where.add("cs.faculty_id = ?", filter.FacultyID)
	}
	if filter.RoomID != "" {
		where.add("cs.room_id = ?", filter.RoomID)
	}
	if filter.Type != "" {
		where.add("cs.type = ?", filter.Type)
	}
	if filter.Day != "" {
		where.add("strpos(cs.schedule, ?) > 0", filter.Day)
	}
	if filter.Search != "" {
		where.add("(LOWER(c.course_code) LIKE ? OR LOWER(cs.section) LIKE ?)", "%"+strings.ToLower(filter.Search)+"%")
	}
	base := sectionDetailFrom + " WHERE 1=1" + where.clause()

	order := orderBy(map[string]string{
		"course_code": "c.course_code",
		"section":     "cs.section",
		"type":        "cs.type",
		"created_at":  "cs.created_at",
	}, filter.SortBy, "course_code", filter.SortOrder, "ASC")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	q := executor(ctx, r.db)
	query := fmt.Sprintf("SELECT %s %s ORDER BY %s, cs.section ASC LIMIT %d OFFSET %d", sectionDetailColumns, base, order, limit, offset)
	var sections []models.SectionDetail
	if err := sqlx.SelectContext(ctx, q, &sections, query, where.args...); err != nil {
		if invalidText(err) {
			return []models.SectionDetail{}, 0, nil
		}
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, q, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}
	return sections, total, nil
}

// FindByID fetches a section with its joined display fields.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE cs.id = $1", sectionDetailColumns, sectionDetailFrom)
	var section models.SectionDetail
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &section, query, id); err != nil {
		return nil, notFoundOnInvalidText(err)
	}
	return &section, nil
}

// FindByCourseAndLabel fetches a section by its course and section label.
func (r *SectionRepository) FindByCourseAndLabel(ctx context.Context, courseID, label string) (*models.SectionDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE cs.course_id = $1 AND cs.section = $2", sectionDetailColumns, sectionDetailFrom)
	var section models.SectionDetail
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &section, query, courseID, label); err != nil {
		return nil, notFoundOnInvalidText(err)
	}
	return &section, nil
}

// ListByCourse returns every section of a course ordered by label.
func (r *SectionRepository) ListByCourse(ctx context.Context, courseID string) ([]models.SectionDetail, error) {
	return r.listBy(ctx, "cs.course_id", courseID, "list sections by course")
}

// ListByFaculty returns every section taught by a faculty member.
func (r *SectionRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.SectionDetail, error) {
	return r.listBy(ctx, "cs.faculty_id", facultyID, "list sections by faculty")
}

// ListByRoom returns every section held in a room.
func (r *SectionRepository) ListByRoom(ctx context.Context, roomID string) ([]models.SectionDetail, error) {
	return r.listBy(ctx, "cs.room_id", roomID, "list sections by room")
}

func (r *SectionRepository) listBy(ctx context.Context, column, value, op string) ([]models.SectionDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE %s = $1 ORDER BY c.course_code ASC, cs.section ASC", sectionDetailColumns, sectionDetailFrom, column)
	var sections []models.SectionDetail
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &sections, query, value); err != nil {
		if invalidText(err) {
			return []models.SectionDetail{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sections, nil
}

// FindAssignments returns the candidate assignments for a conflict scan. The
// day filter is a plain substring test on the stored schedule string, so
// callers must still check day membership after parsing.
func (r *SectionRepository) FindAssignments(ctx context.Context, q models.AssignmentQuery) ([]models.Assignment, error) {
	var where whereBuilder
	if q.FacultyID != "" {
		where.add("cs.faculty_id = ?", q.FacultyID)
	}
	if q.RoomID != "" {
		where.add("cs.room_id = ?", q.RoomID)
	}
	if q.DayContains != "" {
		where.add("strpos(cs.schedule, ?) > 0", q.DayContains)
	}
	if q.ExcludeID != "" {
		where.add("cs.id <> ?", q.ExcludeID)
	}

	query := `SELECT cs.id, c.course_code, cs.section, cs.schedule, cs.faculty_id, cs.room_id, r.room AS room_name
		FROM class_sections cs
		JOIN courses c ON c.id = cs.course_id
		LEFT JOIN rooms r ON r.id = cs.room_id
		WHERE 1=1` + where.clause() + ` ORDER BY c.course_code ASC, cs.section ASC`

	var assignments []models.Assignment
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &assignments, query, where.args...); err != nil {
		// An id that is not a uuid cannot match any stored row.
		if invalidText(err) {
			return []models.Assignment{}, nil
		}
		return nil, fmt.Errorf("find assignments: %w", err)
	}
	return assignments, nil
}

// ExistsByCourseAndLabel checks whether another section already uses label
// within the course.
func (r *SectionRepository) ExistsByCourseAndLabel(ctx context.Context, courseID, label, excludeID string) (bool, error) {
	query := "SELECT 1 FROM class_sections WHERE course_id = $1 AND section = $2"
	args := []interface{}{courseID, label}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check section label: %w", err)
	}
	return true, nil
}

// Create inserts a new section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now

	const query = `INSERT INTO class_sections (id, course_id, section, type, room_id, faculty_id, schedule, created_at, updated_at)
		VALUES (:id, :course_id, :section, :type, :room_id, :faculty_id, :schedule, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update modifies an existing section.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_sections SET course_id = :course_id, section = :section, type = :type, room_id = :room_id,
		faculty_id = :faculty_id, schedule = :schedule, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section by id.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM class_sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// WithinScheduleLock runs fn inside a transaction holding advisory locks for
// every key. Locks are released when the transaction ends.
func (r *SectionRepository) WithinScheduleLock(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	return inTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		for _, key := range lockKeys(keys) {
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
				return fmt.Errorf("acquire schedule lock %s: %w", key, err)
			}
		}
		return fn(ctx)
	})
}
