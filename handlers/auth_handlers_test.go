package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandlers()
	r.POST("/api/admin/login", h.Login)
	r.POST("/api/admin/logout", h.Logout)
	return r
}

func postLogin(t *testing.T, r *gin.Engine, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func setAdminEnv(t *testing.T, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	t.Setenv("ADMIN_EMAIL", email)
	t.Setenv("ADMIN_PASSWORD_HASH", string(hash))
	t.Setenv("JWT_SECRET_KEY", "test-secret")
}

func TestLogin_IssuesJWTCookie(t *testing.T) {
	setAdminEnv(t, "admin@example.com", "hunter22hunter22")
	r := newAuthRouter()

	w := postLogin(t, r, "admin@example.com", "hunter22hunter22")

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "jwt_token", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestLogin_RejectsWrongCredentials(t *testing.T) {
	setAdminEnv(t, "admin@example.com", "hunter22hunter22")
	r := newAuthRouter()

	assert.Equal(t, http.StatusUnauthorized, postLogin(t, r, "admin@example.com", "wrong-password").Code)
	assert.Equal(t, http.StatusUnauthorized, postLogin(t, r, "intruder@example.com", "hunter22hunter22").Code)
}

func TestLogin_UnconfiguredAdminIs500(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	r := newAuthRouter()

	assert.Equal(t, http.StatusInternalServerError, postLogin(t, r, "admin@example.com", "anything").Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	r := newAuthRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "jwt_token", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}
