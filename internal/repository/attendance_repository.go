package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scms-ph/attendance-api/internal/models"
)

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert records attendance for a student and date. The unique
// (student_id, date) constraint turns repeated marks into updates.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) error {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	const query = `INSERT INTO attendance (student_id, date, time_in, time_out, status, remarks, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT attendance_student_date_key
		DO UPDATE SET time_in = EXCLUDED.time_in, time_out = EXCLUDED.time_out, status = EXCLUDED.status, remarks = EXCLUDED.remarks, updated_at = EXCLUDED.updated_at
		RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		record.StudentID, record.Date, record.TimeIn, record.TimeOut,
		record.Status, record.Remarks, record.CreatedBy,
		record.CreatedAt, record.UpdatedAt,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// ListByDate returns attendance records for one day.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.Attendance, error) {
	const query = `SELECT id, student_id, date, time_in, time_out, status, remarks, created_by, created_at, updated_at
		FROM attendance WHERE date = $1 ORDER BY student_id`
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, date); err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return records, nil
}

// CountByStatus aggregates Present/Late/Absent counts for one day.
func (r *AttendanceRepository) CountByStatus(ctx context.Context, date time.Time) (models.AttendanceCounts, error) {
	rows := []struct {
		Status models.AttendanceStatus `db:"status"`
		Count  int                     `db:"count"`
	}{}
	const query = `SELECT status, COUNT(*) AS count FROM attendance WHERE date = $1 GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return models.AttendanceCounts{}, fmt.Errorf("count attendance by status: %w", err)
	}

	var counts models.AttendanceCounts
	for _, row := range rows {
		switch row.Status {
		case models.StatusPresent:
			counts.Present = row.Count
		case models.StatusLate:
			counts.Late = row.Count
		case models.StatusAbsent:
			counts.Absent = row.Count
		}
	}
	return counts, nil
}
