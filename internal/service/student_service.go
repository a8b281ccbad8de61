package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scms-ph/attendance-api/internal/models"
	"github.com/scms-ph/attendance-api/internal/repository"
	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
	"github.com/scms-ph/attendance-api/pkg/validate"
)

// dashboardCacheKeyPattern matches every cached dashboard payload.
const dashboardCacheKeyPattern = "dashboard:*"

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	CreateQRCode(ctx context.Context, code *models.QRCode) error
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Strand    string `json:"strand" validate:"required"`
	YearLevel string `json:"year_level" validate:"required"`
	Section   string `json:"section" validate:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// StudentListResponse wraps the roster listing.
type StudentListResponse struct {
	Students []models.Student `json:"students"`
	Total    int              `json:"total"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns the full roster ordered by name.
func (s *StudentService) List(ctx context.Context) (*StudentListResponse, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return &StudentListResponse{Students: students, Total: len(students)}, nil
}

// Create registers a new student after shape validation.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student ID, name, strand, year level, and section are required")
	}
	if !validate.StudentID(req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student ID format")
	}
	if !models.ValidStrand(req.Strand) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid strand")
	}
	if req.Email != "" && !validate.Email(req.Email) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid email format")
	}

	student := &models.Student{
		StudentID: req.StudentID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Strand:    models.Strand(strings.ToUpper(req.Strand)),
		YearLevel: req.YearLevel,
		Section:   req.Section,
		Email:     optional(req.Email),
		Phone:     optional(req.Phone),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateStudentID) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student ID already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add student")
	}

	s.invalidateDashboard(ctx)
	return student, nil
}

// Delete removes a student and everything it owns.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Clear removes every student record. Admin-only at the route level.
func (s *StudentService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear students")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// GenerateQRCode creates and persists an opaque QR payload for a student.
func (s *StudentService) GenerateQRCode(ctx context.Context, id int64) (*models.QRCode, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"nonce":     uuid.NewString(),
		"studentId": student.ID,
		"name":      student.FullName(),
		"strand":    student.Strand,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build qr payload")
	}

	code := &models.QRCode{
		StudentID: student.ID,
		Data:      string(payload),
		IsActive:  true,
	}
	if err := s.repo.CreateQRCode(ctx, code); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store qr code")
	}
	return code, nil
}

func (s *StudentService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCacheKeyPattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
