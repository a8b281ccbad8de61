package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scms-ph/attendance-api/internal/models"
)

// TeacherRepository manages persistence for teacher records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns all teachers ordered by name.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, teacher_id, first_name, last_name, position, department, email, phone, created_at, updated_at
		FROM teachers ORDER BY first_name, last_name`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// Create inserts a new teacher and fills in the generated ID. Returns
// ErrDuplicateTeacherID when the external teacher code is already taken.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (teacher_id, first_name, last_name, position, department, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		teacher.TeacherID, teacher.FirstName, teacher.LastName, teacher.Position,
		teacher.Department, teacher.Email, teacher.Phone,
		teacher.CreatedAt, teacher.UpdatedAt,
	).Scan(&teacher.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTeacherID
		}
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// CountAll returns the total number of teachers.
func (r *TeacherRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM teachers`); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return total, nil
}

// Search returns up to limit teachers whose name or position contains the
// term, case-insensitively.
func (r *TeacherRepository) Search(ctx context.Context, term string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(term) + "%"
	query := fmt.Sprintf(`SELECT id, first_name || ' ' || last_name AS name, position AS detail, 'teacher' AS type
		FROM teachers
		WHERE LOWER(first_name) LIKE $1
			OR LOWER(last_name) LIKE $1
			OR LOWER(first_name || ' ' || last_name) LIKE $1
			OR LOWER(position) LIKE $1
		LIMIT %d`, limit)
	var results []models.SearchResult
	if err := r.db.SelectContext(ctx, &results, query, pattern); err != nil {
		return nil, fmt.Errorf("search teachers: %w", err)
	}
	return results, nil
}
