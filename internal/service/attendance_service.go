package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scms-ph/attendance-api/internal/models"
	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
)

// lateThreshold is the cutoff for arriving on time.
const lateThreshold = "08:30"

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.Attendance) error
	ListByDate(ctx context.Context, date time.Time) ([]models.Attendance, error)
}

type attendanceStudentLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

// MarkAttendanceRequest records a single student's state for a date.
type MarkAttendanceRequest struct {
	StudentID int64  `json:"student_id" validate:"required"`
	Date      string `json:"date"`
	TimeIn    string `json:"time_in"`
	TimeOut   string `json:"time_out"`
	Status    string `json:"status"`
	Remarks   string `json:"remarks"`
}

// AttendanceListResponse wraps a single day's records.
type AttendanceListResponse struct {
	Date    string              `json:"date"`
	Records []models.Attendance `json:"records"`
	Total   int                 `json:"total"`
}

// AttendanceService handles daily attendance marking and listing.
type AttendanceService struct {
	repo      attendanceRepository
	students  attendanceStudentLookup
	cache     *CacheService
	validator *validator.Validate
	now       func() time.Time
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, students attendanceStudentLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		students:  students,
		cache:     cache,
		validator: validate,
		now:       time.Now,
		logger:    logger,
	}
}

// Mark records attendance for one student on one date. Marking the same
// student and date again replaces the earlier record.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest, markedBy int64) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student_id is required")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	date, err := s.resolveDate(req.Date)
	if err != nil {
		return nil, err
	}

	timeIn := req.TimeIn
	if timeIn == "" && req.Status != string(models.StatusAbsent) {
		timeIn = s.now().Format("15:04")
	}

	status := models.AttendanceStatus(req.Status)
	if status == "" {
		status = statusFromTimeIn(timeIn)
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Present, Late, or Absent")
	}

	record := &models.Attendance{
		StudentID: req.StudentID,
		Date:      date,
		TimeIn:    optional(timeIn),
		TimeOut:   optional(req.TimeOut),
		Status:    status,
		Remarks:   optional(req.Remarks),
	}
	if markedBy > 0 {
		record.CreatedBy = &markedBy
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	if err := s.cache.Invalidate(ctx, dashboardCacheKeyPattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
	return record, nil
}

// ListByDate returns all records for the given date, defaulting to today.
func (s *AttendanceService) ListByDate(ctx context.Context, rawDate string) (*AttendanceListResponse, error) {
	date, err := s.resolveDate(rawDate)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if records == nil {
		records = []models.Attendance{}
	}
	return &AttendanceListResponse{
		Date:    date.Format("2006-01-02"),
		Records: records,
		Total:   len(records),
	}, nil
}

func (s *AttendanceService) resolveDate(raw string) (time.Time, error) {
	if raw == "" {
		now := s.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be in YYYY-MM-DD format")
	}
	return date, nil
}

// statusFromTimeIn derives Present or Late from an HH:MM arrival time.
func statusFromTimeIn(timeIn string) models.AttendanceStatus {
	if timeIn == "" {
		return models.StatusAbsent
	}
	if timeIn > lateThreshold {
		return models.StatusLate
	}
	return models.StatusPresent
}
