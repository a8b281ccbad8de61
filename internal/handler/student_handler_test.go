package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scms-ph/attendance-api/internal/middleware"
	"github.com/scms-ph/attendance-api/internal/models"
	"github.com/scms-ph/attendance-api/internal/service"
	"github.com/scms-ph/attendance-api/pkg/storage"
)

type studentRouterEnv struct {
	router   *gin.Engine
	users    *memUserRepo
	students *memStudentRepo
}

func buildStudentRouter(t *testing.T) *studentRouterEnv {
	t.Helper()

	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	teacherHash, err := bcrypt.GenerateFromPassword([]byte("teach123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	users := &memUserRepo{users: []*models.User{
		{ID: 1, Username: "admin", Email: "admin@attendance.local", PasswordHash: string(adminHash), Role: models.RoleAdmin},
		{ID: 2, Username: "teacher1", Email: "t1@attendance.local", PasswordHash: string(teacherHash), Role: models.RoleTeacher},
	}}
	students := &memStudentRepo{}

	authSvc := newTestAuthService(users)
	studentSvc := service.NewStudentService(students, nil, nil, nil)
	importSvc := service.NewImportService(students, nil, nil, nil)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", 30*time.Minute)
	exportSvc := service.NewExportService(students, store, signer, nil)

	authHandler := NewAuthHandler(authSvc, AuthCookieConfig{Name: "auth-token"})
	h := NewStudentHandler(studentSvc, importSvc, exportSvc)
	exportHandler := NewExportHandler(exportSvc)

	requireAuth := middleware.Auth(authSvc, "auth-token")
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	router := gin.New()
	router.POST("/auth/login", authHandler.Login)
	group := router.Group("/students", requireAuth)
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/export", h.Export)
	group.POST("/import", adminOnly, h.Import)
	group.POST("/clear", adminOnly, h.Clear)
	group.DELETE("/:id", adminOnly, h.Delete)
	router.GET("/exports/download", exportHandler.Download)

	return &studentRouterEnv{router: router, users: users, students: students}
}

func (e *studentRouterEnv) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(e.router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	for _, c := range resp.Result().Cookies() {
		if c.Name == "auth-token" {
			return c
		}
	}
	t.Fatal("auth-token cookie not set")
	return nil
}

func TestStudentRoutesRequireAuthentication(t *testing.T) {
	env := buildStudentRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/students", nil)
	resp := performRequest(env.router, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestStudentCreateThenDuplicateConflict(t *testing.T) {
	env := buildStudentRouter(t)
	cookie := env.login(t, "admin@attendance.local", "admin123")

	payload := `{"student_id":"S-12345","first_name":"Juan","last_name":"Dela Cruz","strand":"HUMSS","year_level":"11","section":"A"}`

	req, _ := http.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	resp := performRequest(env.router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"id":1`)

	req2, _ := http.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(payload))
	req2.Header.Set("Content-Type", "application/json")
	req2.AddCookie(cookie)
	resp2 := performRequest(env.router, req2)
	require.Equal(t, http.StatusConflict, resp2.Code)

	req3, _ := http.NewRequest(http.MethodGet, "/students", nil)
	req3.AddCookie(cookie)
	resp3 := performRequest(env.router, req3)
	require.Equal(t, http.StatusOK, resp3.Code)
	assert.Contains(t, resp3.Body.String(), `"total":1`)
}

func TestStudentImportForbiddenForTeacher(t *testing.T) {
	env := buildStudentRouter(t)
	cookie := env.login(t, "t1@attendance.local", "teach123")

	body := `{"csvContent":"Student ID,First Name,Last Name,Strand,Year Level,Section\n2024-0001,Juan,Dela Cruz,HUMSS,11,A"}`
	req, _ := http.NewRequest(http.MethodPost, "/students/import", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	resp := performRequest(env.router, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Empty(t, env.students.students)
}

func TestStudentImportAsAdmin(t *testing.T) {
	env := buildStudentRouter(t)
	cookie := env.login(t, "admin@attendance.local", "admin123")

	body := `{"csvContent":"Student ID,First Name,Last Name,Strand,Year Level,Section\n2024-0001,Juan,Dela Cruz,HUMSS,11,A\n,,,,,"}`
	req, _ := http.NewRequest(http.MethodPost, "/students/import", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	resp := performRequest(env.router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data service.ImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Imported)
	assert.Equal(t, 2, envelope.Data.Total)
	require.Len(t, envelope.Data.Errors, 1)
	assert.Equal(t, "Row 3: Missing required fields", envelope.Data.Errors[0])
}

func TestStudentClearForbiddenForTeacher(t *testing.T) {
	env := buildStudentRouter(t)
	env.students.students = []models.Student{{ID: 1, StudentID: "2024-0001"}}
	cookie := env.login(t, "t1@attendance.local", "teach123")

	req, _ := http.NewRequest(http.MethodPost, "/students/clear", nil)
	req.AddCookie(cookie)
	resp := performRequest(env.router, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.False(t, env.students.cleared)
}

func TestStudentExportAndDownload(t *testing.T) {
	env := buildStudentRouter(t)
	env.students.students = []models.Student{{
		ID: 1, StudentID: "2024-0001", FirstName: "Juan", LastName: "Dela Cruz",
		Strand: models.StrandHUMSS, YearLevel: "11", Section: "A",
	}}
	cookie := env.login(t, "admin@attendance.local", "admin123")

	req, _ := http.NewRequest(http.MethodGet, "/students/export?format=csv", nil)
	req.AddCookie(cookie)
	resp := performRequest(env.router, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data service.ExportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Token)

	dlReq, _ := http.NewRequest(http.MethodGet, "/exports/download?token="+envelope.Data.Token, nil)
	dlResp := performRequest(env.router, dlReq)
	require.Equal(t, http.StatusOK, dlResp.Code)
	assert.Contains(t, dlResp.Body.String(), "2024-0001")
}

func TestStudentDeleteUnknownID(t *testing.T) {
	env := buildStudentRouter(t)
	cookie := env.login(t, "admin@attendance.local", "admin123")

	req, _ := http.NewRequest(http.MethodDelete, "/students/99", nil)
	req.AddCookie(cookie)
	resp := performRequest(env.router, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStudentDeleteBadID(t *testing.T) {
	env := buildStudentRouter(t)
	cookie := env.login(t, "admin@attendance.local", "admin123")

	req, _ := http.NewRequest(http.MethodDelete, "/students/abc", nil)
	req.AddCookie(cookie)
	resp := performRequest(env.router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
