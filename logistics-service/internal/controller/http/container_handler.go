package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/usecase"
	"github.com/director74/cargo_logistics/pkg/errors"
)

type ContainerHandler struct {
	containers *usecase.ContainerUseCase
	clients    *usecase.ClientUseCase
}

func NewContainerHandler(containers *usecase.ContainerUseCase, clients *usecase.ClientUseCase) *ContainerHandler {
	return &ContainerHandler{
		containers: containers,
		clients:    clients,
	}
}

func (h *ContainerHandler) RegisterRoutes(api, internal *gin.RouterGroup) {
	containers := api.Group("/containers", operators)
	{
		containers.GET("", h.ListContainers)
		containers.GET("/:id", h.GetContainer)
		containers.PATCH("/:id", h.UpdateContainer)
		containers.PUT("/:id/status", h.ChangeStatus)
		containers.DELETE("/:id", h.DeleteContainer)
	}

	api.POST("/clients", clients, h.RegisterClient)
	api.GET("/clients", operators, h.ListClients)
	api.GET("/clients/:id", clients, h.GetClient)
}

type listContainersQuery struct {
	Serial   string                 `form:"serial"`
	Status   entity.ContainerStatus `form:"status"`
	ClientID uint                   `form:"client_id"`
}

// ListContainers поиск по ?serial=, ?client_id= или ?status=
func (h *ContainerHandler) ListContainers(c *gin.Context) {
	var query listContainersQuery
	if !errors.BindQuery(c, &query) {
		return
	}

	ctx := c.Request.Context()
	switch {
	case query.Serial != "":
		container, err := h.containers.GetBySerial(ctx, query.Serial)
		if errors.HandleGinError(c, err) {
			return
		}
		c.JSON(http.StatusOK, []entity.Container{*container})
	case query.ClientID != 0:
		resp, err := h.containers.ListByClient(ctx, query.ClientID)
		if errors.HandleGinError(c, err) {
			return
		}
		c.JSON(http.StatusOK, resp)
	case query.Status != "":
		resp, err := h.containers.ListByStatus(ctx, query.Status)
		if errors.HandleGinError(c, err) {
			return
		}
		c.JSON(http.StatusOK, resp)
	default:
		errors.HandleGinError(c, errors.NewBadRequestError("нужен фильтр serial, client_id или status"))
	}
}

func (h *ContainerHandler) GetContainer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.containers.Get(c.Request.Context(), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ContainerHandler) UpdateContainer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.UpdateContainerRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	resp, err := h.containers.Update(c.Request.Context(), id, req)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ContainerHandler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.ChangeContainerStatusRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	resp, err := h.containers.ChangeStatus(c.Request.Context(), id, req.Status)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ContainerHandler) DeleteContainer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if errors.HandleGinError(c, h.containers.Delete(c.Request.Context(), id)) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ContainerHandler) RegisterClient(c *gin.Context) {
	var req entity.ClientInput
	if !errors.BindJSON(c, &req) {
		return
	}

	resp, err := h.clients.FindOrCreate(c.Request.Context(), identity(c), req)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ContainerHandler) ListClients(c *gin.Context) {
	resp, err := h.clients.List(c.Request.Context())
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ContainerHandler) GetClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.clients.Get(c.Request.Context(), identity(c), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}
