package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scms-ph/attendance-api/internal/models"
	"github.com/scms-ph/attendance-api/internal/repository"
	"github.com/scms-ph/attendance-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

// memUserRepo backs the auth service in handler tests.
type memUserRepo struct {
	users  []*models.User
	audits []*models.AuditLog
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = int64(len(m.users) + 1)
	m.users = append(m.users, user)
	return nil
}

func (m *memUserRepo) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	return nil
}

func (m *memUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

// memStudentRepo backs the student, import, and export services.
type memStudentRepo struct {
	students []models.Student
	cleared  bool
}

func (m *memStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	return m.students, nil
}

func (m *memStudentRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	for i := range m.students {
		if m.students[i].ID == id {
			return &m.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStudentRepo) Create(ctx context.Context, student *models.Student) error {
	for _, existing := range m.students {
		if existing.StudentID == student.StudentID {
			return repository.ErrDuplicateStudentID
		}
	}
	student.ID = int64(len(m.students) + 1)
	m.students = append(m.students, *student)
	return nil
}

func (m *memStudentRepo) Delete(ctx context.Context, id int64) error {
	out := m.students[:0]
	for _, s := range m.students {
		if s.ID != id {
			out = append(out, s)
		}
	}
	m.students = out
	return nil
}

func (m *memStudentRepo) Clear(ctx context.Context) error {
	m.cleared = true
	m.students = nil
	return nil
}

func (m *memStudentRepo) CreateQRCode(ctx context.Context, code *models.QRCode) error {
	code.ID = 1
	return nil
}

func newTestAuthService(repo *memUserRepo) *service.AuthService {
	return service.NewAuthService(repo, nil, nil, service.AuthConfig{
		Secret:     "handler-test-secret",
		Expiration: time.Hour,
		Issuer:     "attendance-api",
	})
}
