package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scms-ph/attendance-api/internal/models"
)

// StudentRepository manages persistence for student records and the
// dependent rows owned by them (attendance, qr codes, face profiles).
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, student_id, first_name, last_name, strand, year_level, section, email, phone, created_at, updated_at`

// List returns all students ordered by name.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students ORDER BY first_name, last_name`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by numeric ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1 LIMIT 1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// Create inserts a new student and fills in the generated ID. Returns
// ErrDuplicateStudentID when the external student code is already taken.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (student_id, first_name, last_name, strand, year_level, section, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		student.StudentID, student.FirstName, student.LastName, student.Strand,
		student.YearLevel, student.Section, student.Email, student.Phone,
		student.CreatedAt, student.UpdatedAt,
	).Scan(&student.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateStudentID
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Delete removes a student and its dependent rows. Children are deleted
// first so the referential constraints are never violated mid-sequence.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	statements := []string{
		`DELETE FROM attendance WHERE student_id = $1`,
		`DELETE FROM qr_codes WHERE student_id = $1`,
		`DELETE FROM face_recognition WHERE student_id = $1`,
		`DELETE FROM students WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
	}
	return nil
}

// Clear removes every student together with all dependent rows.
func (r *StudentRepository) Clear(ctx context.Context) error {
	statements := []string{
		`DELETE FROM attendance WHERE student_id IN (SELECT id FROM students)`,
		`DELETE FROM qr_codes WHERE student_id IN (SELECT id FROM students)`,
		`DELETE FROM face_recognition WHERE student_id IN (SELECT id FROM students)`,
		`DELETE FROM students`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear students: %w", err)
		}
	}
	return nil
}

// CountAll returns the total number of students.
func (r *StudentRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CountByStrand returns student counts grouped by strand. Strands without
// students are filled with zero.
func (r *StudentRepository) CountByStrand(ctx context.Context) (models.StrandCounts, error) {
	rows := []struct {
		Strand models.Strand `db:"strand"`
		Count  int           `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT strand, COUNT(*) AS count FROM students GROUP BY strand`); err != nil {
		return nil, fmt.Errorf("count students by strand: %w", err)
	}
	counts := models.NewStrandCounts()
	for _, row := range rows {
		if _, ok := counts[row.Strand]; ok {
			counts[row.Strand] = row.Count
		}
	}
	return counts, nil
}

// Search returns up to limit students whose name or strand contains the
// term, case-insensitively.
func (r *StudentRepository) Search(ctx context.Context, term string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(term) + "%"
	query := fmt.Sprintf(`SELECT id, first_name || ' ' || last_name AS name, strand AS detail, 'student' AS type
		FROM students
		WHERE LOWER(first_name) LIKE $1
			OR LOWER(last_name) LIKE $1
			OR LOWER(first_name || ' ' || last_name) LIKE $1
			OR LOWER(strand) LIKE $1
		LIMIT %d`, limit)
	var results []models.SearchResult
	if err := r.db.SelectContext(ctx, &results, query, pattern); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return results, nil
}

// CreateQRCode attaches a generated QR payload to a student.
func (r *StudentRepository) CreateQRCode(ctx context.Context, code *models.QRCode) error {
	now := time.Now().UTC()
	code.CreatedAt = now
	code.UpdatedAt = now

	const query = `INSERT INTO qr_codes (student_id, qr_code_data, qr_code_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query, code.StudentID, code.Data, code.URL, code.IsActive, code.CreatedAt, code.UpdatedAt).Scan(&code.ID)
	if err != nil {
		return fmt.Errorf("create qr code: %w", err)
	}
	return nil
}
