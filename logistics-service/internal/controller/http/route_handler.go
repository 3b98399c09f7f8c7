package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/usecase"
	"github.com/director74/cargo_logistics/pkg/errors"
)

type RouteHandler struct {
	routes   *usecase.RouteUseCase
	segments *usecase.SegmentUseCase
}

func NewRouteHandler(routes *usecase.RouteUseCase, segments *usecase.SegmentUseCase) *RouteHandler {
	return &RouteHandler{
		routes:   routes,
		segments: segments,
	}
}

func (h *RouteHandler) RegisterRoutes(api, internal *gin.RouterGroup) {
	routes := api.Group("/routes", operators)
	{
		routes.POST("", h.CreateRoute)
		routes.GET("", h.ListRoutes)
		routes.GET("/:id", h.GetRoute)
		routes.PUT("/:id", h.UpdateRoute)
		routes.DELETE("/:id", h.DeleteRoute)
		routes.POST("/:id/recalculate", h.RecalculateEstimate)
		routes.GET("/:id/validate", h.ValidateRoute)
	}

	api.GET("/routes/:id/progress", clients, h.GetProgress)
	api.GET("/routes/:id/segments", carriers, h.ListSegments)
}

func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req entity.CreateRouteRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	resp, err := h.routes.Create(c.Request.Context(), req)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *RouteHandler) ListRoutes(c *gin.Context) {
	resp, err := h.routes.List(c.Request.Context())
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RouteHandler) GetRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.routes.Get(c.Request.Context(), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateRoute заменяет участки маршрута целиком
func (h *RouteHandler) UpdateRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.CreateRouteRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	resp, err := h.routes.Update(c.Request.Context(), id, req)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RouteHandler) DeleteRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if errors.HandleGinError(c, h.routes.Delete(c.Request.Context(), id)) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RouteHandler) RecalculateEstimate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.routes.RecalculateEstimate(c.Request.Context(), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RouteHandler) ValidateRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.routes.Validate(c.Request.Context(), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RouteHandler) GetProgress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.routes.Progress(c.Request.Context(), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RouteHandler) ListSegments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.segments.ListByRoute(c.Request.Context(), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}
