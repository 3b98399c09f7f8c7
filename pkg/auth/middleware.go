package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/director74/cargo_logistics/pkg/errors"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
)

// AuthMiddleware проверяет JWT токен и кладет данные пользователя в контекст gin
type AuthMiddleware struct {
	jwtManager *JWTManager
}

func NewAuthMiddleware(jwtManager *JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
	}
}

// AuthRequired требует валидный Bearer токен
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			pkgerrors.HandleGinError(c, pkgerrors.NewUnauthorizedError("отсутствует токен"))
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			pkgerrors.HandleGinError(c, pkgerrors.NewUnauthorizedError("неверный формат токена"))
			return
		}

		claims, err := m.jwtManager.ParseToken(token)
		if err != nil {
			pkgerrors.HandleGinError(c, pkgerrors.NewUnauthorizedError("недействительный токен: "+err.Error()))
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, strings.ToLower(claims.Role))

		c.Next()
	}
}

// RequireRoles пропускает запрос только для перечисленных ролей.
// Должен стоять после AuthRequired
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := allowed[GetRole(c)]; !ok {
			pkgerrors.HandleGinError(c, pkgerrors.NewForbiddenError("недостаточно прав для выполнения операции"))
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

func GetRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}
