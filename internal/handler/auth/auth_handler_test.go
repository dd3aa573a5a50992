package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/crypto"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/jwt"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/response"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/middleware"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/repository"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/service/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Admin{})
	require.NoError(t, err)

	return db
}

func newTestRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:           "test-secret",
		AccessExpireTime: time.Hour,
		Issuer:           "waffle-fiesta-test",
	})
	mr := miniredis.RunT(t)
	tokenStore := auth.NewTokenStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	authService := auth.NewAuthService(repository.NewAdminRepository(db), jwtManager, tokenStore)

	r := gin.New()
	public := r.Group("/api/v1/admin/auth")
	authed := r.Group("/api/v1/admin/auth")
	authed.Use(middleware.AdminAuth(jwtManager, tokenStore))
	NewHandler(authService).RegisterRoutes(public, authed)
	return r
}

func createTestAdmin(t *testing.T, db *gorm.DB, username, password string) *models.Admin {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)

	admin := &models.Admin{
		Username:     username,
		PasswordHash: hash,
		Name:         "Test Admin",
		Role:         jwt.RoleAdmin,
		Status:       models.AdminStatusActive,
	}
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func login(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/v1/admin/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	require.Equal(t, 0, resp.Code)
	data := resp.Data.(map[string]interface{})
	token := data["token"].(map[string]interface{})
	return token["access_token"].(string)
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	createTestAdmin(t, db, "staff", "waffles123")
	r := newTestRouter(t, db)

	token := login(t, r, "staff", "waffles123")
	assert.NotEmpty(t, token)
}

func TestLogin_WrongPassword(t *testing.T) {
	db := setupTestDB(t)
	createTestAdmin(t, db, "staff", "waffles123")
	r := newTestRouter(t, db)

	w := doJSON(r, http.MethodPost, "/api/v1/admin/auth/login", "", gin.H{
		"username": "staff",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, "invalid username or password", resp.Message)
}

func TestLogin_UnknownUsername(t *testing.T) {
	r := newTestRouter(t, setupTestDB(t))

	w := doJSON(r, http.MethodPost, "/api/v1/admin/auth/login", "", gin.H{
		"username": "ghost",
		"password": "whatever",
	})

	// Same message as a wrong password so usernames cannot be probed.
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, "invalid username or password", resp.Message)
}

func TestLogin_DisabledAccount(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestAdmin(t, db, "staff", "waffles123")
	require.NoError(t, db.Model(admin).Update("status", models.AdminStatusDisabled).Error)
	r := newTestRouter(t, db)

	w := doJSON(r, http.MethodPost, "/api/v1/admin/auth/login", "", gin.H{
		"username": "staff",
		"password": "waffles123",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMe(t *testing.T) {
	db := setupTestDB(t)
	createTestAdmin(t, db, "staff", "waffles123")
	r := newTestRouter(t, db)

	token := login(t, r, "staff", "waffles123")
	w := doJSON(r, http.MethodGet, "/api/v1/admin/auth/me", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "staff", data["username"])
	assert.Equal(t, jwt.RoleAdmin, data["role"])
}

func TestMe_NoToken(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(t, db)

	w := doJSON(r, http.MethodGet, "/api/v1/admin/auth/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	db := setupTestDB(t)
	createTestAdmin(t, db, "staff", "waffles123")
	r := newTestRouter(t, db)

	token := login(t, r, "staff", "waffles123")

	w := doJSON(r, http.MethodPost, "/api/v1/admin/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The revoked token must no longer pass the auth middleware.
	after := doJSON(r, http.MethodGet, "/api/v1/admin/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, after.Code)
}
