package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/sacco-api/internal/config"
	"github.com/sjperalta/sacco-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *services.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := services.NewAuthService(&config.Config{JWTSecret: "secret", JWTExpirationHours: 1})

	r := gin.New()
	protected := r.Group("", Auth(auth))
	protected.GET("/me", func(c *gin.Context) {
		actor := Actor(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role})
	})
	protected.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, auth
}

func TestAuth(t *testing.T) {
	r, auth := newAuthRouter(t)
	officer, _, err := auth.IssueToken(5, "Olive", services.RoleOfficer, 0)
	require.NoError(t, err)
	admin, _, err := auth.IssueToken(1, "Ada", services.RoleAdmin, 0)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"bad scheme", "/me", "Token " + officer, http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"officer", "/me", "Bearer " + officer, http.StatusOK},
		{"officer on admin route", "/admin", "Bearer " + officer, http.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer " + admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAuth_QueryToken(t *testing.T) {
	r, auth := newAuthRouter(t)
	token, _, err := auth.IssueToken(5, "Olive", services.RoleOfficer, 0)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": 5, "role": "officer"}`, w.Body.String())
}

func TestGatewayKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tt := range []struct {
		name       string
		configured string
		sent       string
		status     int
	}{
		{"match", "k1", "k1", http.StatusOK},
		{"mismatch", "k1", "k2", http.StatusUnauthorized},
		{"not configured", "", "", http.StatusUnauthorized},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/events", GatewayKey(tt.configured), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/events", nil)
			req.Header.Set("X-Api-Key", tt.sent)
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://office.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://office.example.com")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://office.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
