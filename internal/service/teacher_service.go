package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scms-ph/attendance-api/internal/models"
	"github.com/scms-ph/attendance-api/internal/repository"
	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
	"github.com/scms-ph/attendance-api/pkg/validate"
)

type teacherRepository interface {
	List(ctx context.Context) ([]models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
}

// CreateTeacherRequest holds payload for registering faculty members.
type CreateTeacherRequest struct {
	TeacherID  string `json:"teacher_id" validate:"required"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Position   string `json:"position" validate:"required"`
	Department string `json:"department"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// TeacherListResponse wraps the faculty listing.
type TeacherListResponse struct {
	Teachers []models.Teacher `json:"teachers"`
	Total    int              `json:"total"`
}

// TeacherService handles faculty record use-cases.
type TeacherService struct {
	repo      teacherRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns all faculty members ordered by name.
func (s *TeacherService) List(ctx context.Context) (*TeacherListResponse, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return &TeacherListResponse{Teachers: teachers, Total: len(teachers)}, nil
}

// Create registers a new faculty member.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "teacher ID, name, and position are required")
	}
	if req.Email != "" && !validate.Email(req.Email) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid email format")
	}

	teacher := &models.Teacher{
		TeacherID:  req.TeacherID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Position:   req.Position,
		Department: optional(req.Department),
		Email:      optional(req.Email),
		Phone:      optional(req.Phone),
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		if errors.Is(err, repository.ErrDuplicateTeacherID) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher ID already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add teacher")
	}

	if err := s.cache.Invalidate(ctx, dashboardCacheKeyPattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
	return teacher, nil
}
