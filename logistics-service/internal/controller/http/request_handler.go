package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/usecase"
	"github.com/director74/cargo_logistics/pkg/errors"
)

type RequestHandler struct {
	requests *usecase.RequestUseCase
	costs    *usecase.CostUseCase
}

func NewRequestHandler(requests *usecase.RequestUseCase, costs *usecase.CostUseCase) *RequestHandler {
	return &RequestHandler{
		requests: requests,
		costs:    costs,
	}
}

func (h *RequestHandler) RegisterRoutes(api, internal *gin.RouterGroup) {
	api.POST("/requests", clients, h.CreateRequest)
	api.GET("/requests", operators, h.ListRequests)
	api.GET("/requests/mine", clients, h.ListMyRequests)
	api.GET("/requests/:id", clients, h.GetRequest)
	api.POST("/requests/:id/route", operators, h.AssignRoute)
	api.GET("/requests/:id/cost", clients, h.GetCost)
	api.GET("/clients/:id/requests", clients, h.ListClientRequests)

	internal.GET("/requests/:id/cost", h.GetCostInternal)
}

func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req entity.CreateRequestRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	resp, err := h.requests.Create(c.Request.Context(), identity(c), req)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, resp)
}

type listRequestsQuery struct {
	Status entity.RequestStatus `form:"status"`
	Active bool                 `form:"active"`
}

// ListRequests список заявок. Поддерживает фильтры ?status= и ?active=true
func (h *RequestHandler) ListRequests(c *gin.Context) {
	var query listRequestsQuery
	if !errors.BindQuery(c, &query) {
		return
	}

	resp, err := h.requests.List(c.Request.Context(), usecase.RequestFilter{Status: query.Status, ActiveOnly: query.Active})
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) ListMyRequests(c *gin.Context) {
	resp, err := h.requests.ListMine(c.Request.Context(), identity(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) GetRequest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.requests.Get(c.Request.Context(), identity(c), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) AssignRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.AssignRouteRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	resp, err := h.requests.AssignRoute(c.Request.Context(), identity(c), id, req.RouteID)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) GetCost(c *gin.Context) {
	h.writeCost(c, identity(c))
}

// GetCostInternal расчет стоимости для других сервисов, без проверки владельца
func (h *RequestHandler) GetCostInternal(c *gin.Context) {
	h.writeCost(c, entity.SystemIdentity)
}

func (h *RequestHandler) writeCost(c *gin.Context, who entity.Identity) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.costs.Breakdown(c.Request.Context(), who, id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) ListClientRequests(c *gin.Context) {
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.requests.ListByClient(c.Request.Context(), identity(c), clientID)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}
