package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	cfg := NewConfig("test-secret")
	return NewJWTManager(cfg)
}

func TestGenerateAndParseToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateToken(42, "client@example.com", RoleClient)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "client@example.com", claims.Email)
	assert.Equal(t, RoleClient, claims.Role)
}

func TestGenerateTokenRejectsUnknownRole(t *testing.T) {
	_, err := newTestManager().GenerateToken(1, "x@example.com", "superuser")
	assert.Error(t, err)
}

func TestParseTokenWrongKey(t *testing.T) {
	token, err := newTestManager().GenerateToken(1, "a@example.com", RoleAdmin)
	require.NoError(t, err)

	other := NewJWTManager(NewConfig("another-secret"))
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	cfg := NewConfig("test-secret")
	cfg.TokenTTL = -time.Minute
	token, err := NewJWTManager(cfg).GenerateToken(1, "a@example.com", RoleAdmin)
	require.NoError(t, err)

	_, err = newTestManager().ParseToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func setupRouter(m *JWTManager, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	mw := NewAuthMiddleware(m)
	router.GET("/me", mw.AuthRequired(), RequireRoles(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": GetEmail(c), "role": GetRole(c), "id": GetUserID(c)})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	m := newTestManager()
	router := setupRouter(m, RoleAdmin, RoleClient)

	clientToken, _ := m.GenerateToken(7, "c@example.com", RoleClient)
	carrierToken, _ := m.GenerateToken(8, "d@example.com", RoleCarrier)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"без заголовка", "", http.StatusUnauthorized},
		{"неверная схема", "Token " + clientToken, http.StatusUnauthorized},
		{"мусорный токен", "Bearer abc", http.StatusUnauthorized},
		{"роль не разрешена", "Bearer " + carrierToken, http.StatusForbidden},
		{"клиент", "Bearer " + clientToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthMiddlewareErrorBody(t *testing.T) {
	router := setupRouter(newTestManager(), RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Требуется авторизация: отсутствует токен", body["error"])
}
