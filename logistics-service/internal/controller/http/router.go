package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/pkg/auth"
	"github.com/director74/cargo_logistics/pkg/errors"
	"github.com/director74/cargo_logistics/pkg/middleware"
)

// Handler регистрирует свои маршруты во внешнем (JWT) и внутреннем API
type Handler interface {
	RegisterRoutes(api, internal *gin.RouterGroup)
}

// RegisterRoutes настраивает группы /api/v1 и /internal/v1 и health check
func RegisterRoutes(router *gin.Engine, authMiddleware *auth.AuthMiddleware, internalMiddleware *middleware.InternalAuthMiddleware, handlers ...Handler) {
	router.GET("/health", HealthCheck)

	api := router.Group("/api/v1")
	api.Use(authMiddleware.AuthRequired())

	internal := router.Group("/internal/v1")
	internal.Use(internalMiddleware.Required())

	for _, h := range handlers {
		h.RegisterRoutes(api, internal)
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// identity участник запроса по данным JWT
func identity(c *gin.Context) entity.Identity {
	return entity.Identity{Role: auth.GetRole(c), Email: auth.GetEmail(c)}
}

// parseID читает числовой параметр пути. При ошибке пишет 400 и возвращает false
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse("некорректный ID", nil))
		c.Abort()
		return 0, false
	}
	return uint(id), true
}

var (
	operators = auth.RequireRoles(auth.RoleAdmin)
	clients   = auth.RequireRoles(auth.RoleAdmin, auth.RoleClient)
	carriers  = auth.RequireRoles(auth.RoleAdmin, auth.RoleCarrier)
)
