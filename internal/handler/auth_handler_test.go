package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scms-ph/attendance-api/internal/middleware"
	"github.com/scms-ph/attendance-api/internal/models"
)

func buildAuthRouter(repo *memUserRepo) *gin.Engine {
	authSvc := newTestAuthService(repo)
	h := NewAuthHandler(authSvc, AuthCookieConfig{Name: "auth-token"})

	router := gin.New()
	router.POST("/auth/login", h.Login)
	router.POST("/auth/signup", h.Signup)
	router.POST("/auth/logout", middleware.Auth(authSvc, "auth-token"), h.Logout)
	router.GET("/auth/me", middleware.Auth(authSvc, "auth-token"), h.Me)
	return router
}

func seededUserRepo(t *testing.T) *memUserRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &memUserRepo{users: []*models.User{{
		ID: 1, Username: "admin", Email: "admin@attendance.local",
		PasswordHash: string(hash), Role: models.RoleAdmin, FullName: "System Administrator",
	}}}
}

func loginCookie(t *testing.T, router *gin.Engine) *http.Cookie {
	t.Helper()
	body := `{"email":"admin@attendance.local","password":"admin123"}`
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	for _, c := range resp.Result().Cookies() {
		if c.Name == "auth-token" {
			return c
		}
	}
	t.Fatal("auth-token cookie not set")
	return nil
}

func TestAuthHandlerLoginSetsHTTPOnlyCookie(t *testing.T) {
	router := buildAuthRouter(seededUserRepo(t))

	body := `{"email":"admin@attendance.local","password":"admin123"}`
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	cookies := resp.Result().Cookies()
	require.NotEmpty(t, cookies)
	var found *http.Cookie
	for _, c := range cookies {
		if c.Name == "auth-token" {
			found = c
		}
	}
	require.NotNil(t, found)
	assert.True(t, found.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, found.SameSite)
	assert.NotEmpty(t, found.Value)
	assert.Contains(t, resp.Body.String(), `"token"`)
}

func TestAuthHandlerLoginBadCredentials(t *testing.T) {
	router := buildAuthRouter(seededUserRepo(t))

	body := `{"email":"admin@attendance.local","password":"nope"}`
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthHandlerMeRequiresCookie(t *testing.T) {
	router := buildAuthRouter(seededUserRepo(t))

	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthHandlerMeWithCookie(t *testing.T) {
	router := buildAuthRouter(seededUserRepo(t))
	cookie := loginCookie(t, router)

	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data struct {
			User models.UserInfo `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "admin", envelope.Data.User.Username)
}

func TestAuthHandlerLogoutRequiresCookie(t *testing.T) {
	router := buildAuthRouter(seededUserRepo(t))

	req, _ := http.NewRequest(http.MethodPost, "/auth/logout", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthHandlerLogoutExpiresCookie(t *testing.T) {
	router := buildAuthRouter(seededUserRepo(t))
	cookie := loginCookie(t, router)

	req, _ := http.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var cleared *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == "auth-token" {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0)
}

func TestAuthHandlerLoginWritesSingleAuditRow(t *testing.T) {
	repo := seededUserRepo(t)
	router := buildAuthRouter(repo)

	loginCookie(t, router)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogin, repo.audits[0].Action)
	require.NotNil(t, repo.audits[0].UserID)
	assert.Equal(t, int64(1), *repo.audits[0].UserID)
}

func TestAuthHandlerSignupCreatesUser(t *testing.T) {
	repo := seededUserRepo(t)
	router := buildAuthRouter(repo)

	body := `{"username":"teacher1","email":"t1@attendance.local","password":"secret123","full_name":"Teacher One","role":"teacher"}`
	req, _ := http.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, repo.users, 2)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionSignup, repo.audits[0].Action)
}
