package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/scms-ph/attendance-api/internal/models"
	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
)

const dashboardStatsCacheKey = "dashboard:stats"

type dashboardStudentRepository interface {
	CountAll(ctx context.Context) (int, error)
	CountByStrand(ctx context.Context) (models.StrandCounts, error)
}

type dashboardTeacherRepository interface {
	CountAll(ctx context.Context) (int, error)
}

type dashboardAttendanceRepository interface {
	CountByStatus(ctx context.Context, date time.Time) (models.AttendanceCounts, error)
}

// DashboardService aggregates the headline numbers for the admin dashboard.
type DashboardService struct {
	students   dashboardStudentRepository
	teachers   dashboardTeacherRepository
	attendance dashboardAttendanceRepository
	cache      *CacheService
	cacheTTL   time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(students dashboardStudentRepository, teachers dashboardTeacherRepository, attendance dashboardAttendanceRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:   students,
		teachers:   teachers,
		attendance: attendance,
		cache:      cache,
		cacheTTL:   cacheTTL,
		now:        time.Now,
		logger:     logger,
	}
}

// Stats returns dashboard counters, serving from cache when possible. The
// second return value reports whether the payload came from cache.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, dashboardStatsCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	totalStudents, err := s.students.CountAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}
	totalTeachers, err := s.teachers.CountAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}
	strandCounts, err := s.students.CountByStrand(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := s.attendance.CountByStatus(ctx, midnight)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}

	stats := &models.DashboardStats{
		TotalStudents:   totalStudents,
		TotalTeachers:   totalTeachers,
		StrandCounts:    strandCounts,
		TodayAttendance: today,
	}
	if err := s.cache.Set(ctx, dashboardStatsCacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return stats, false, nil
}
