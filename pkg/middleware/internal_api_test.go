package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestInternalAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mw := NewInternalAuthMiddleware(&InternalAPIConfig{
		TrustedNetworks: []string{"10.0.0.0/8", "not-a-cidr"},
		APIKey:          "secret",
		HeaderName:      "X-Internal-API-Key",
	})

	router := gin.New()
	router.GET("/internal", mw.Required(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name       string
		remoteAddr string
		key        string
		want       int
	}{
		{"верный ключ", "203.0.113.5:1234", "secret", http.StatusOK},
		{"неверный ключ", "203.0.113.5:1234", "wrong", http.StatusForbidden},
		{"доверенная сеть", "10.1.2.3:1234", "", http.StatusOK},
		{"чужая сеть без ключа", "192.0.2.1:1234", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/internal", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.key != "" {
				req.Header.Set("X-Internal-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestEmptyAPIKeyNeverMatches(t *testing.T) {
	mw := NewInternalAuthMiddleware(&InternalAPIConfig{HeaderName: "X-Internal-API-Key"})
	assert.False(t, mw.validKey(""))
}
