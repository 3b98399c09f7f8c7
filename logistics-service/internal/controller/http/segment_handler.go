package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/usecase"
	"github.com/director74/cargo_logistics/pkg/errors"
)

type SegmentHandler struct {
	segments *usecase.SegmentUseCase
}

func NewSegmentHandler(segments *usecase.SegmentUseCase) *SegmentHandler {
	return &SegmentHandler{segments: segments}
}

func (h *SegmentHandler) RegisterRoutes(api, internal *gin.RouterGroup) {
	api.GET("/segments", carriers, h.ListSegments)
	api.GET("/segments/:id", carriers, h.GetSegment)
	api.PATCH("/segments/:id", operators, h.UpdateSegment)
	api.DELETE("/segments/:id", operators, h.DeleteSegment)
	api.POST("/segments/:id/truck", operators, h.AssignTruck)
	api.POST("/segments/:id/start", carriers, h.StartSegment)
	api.POST("/segments/:id/finish", carriers, h.FinishSegment)
	api.PUT("/segments/:id/actual-cost", carriers, h.SetActualCost)

	internal.POST("/segments/:id/start", h.StartSegment)
	internal.POST("/segments/:id/finish", h.FinishSegment)
}

type listSegmentsQuery struct {
	Status  entity.SegmentStatus `form:"status"`
	TruckID uint                 `form:"truck_id"`
}

// ListSegments участки по состоянию (?status=) или по грузовику (?truck_id=)
func (h *SegmentHandler) ListSegments(c *gin.Context) {
	var query listSegmentsQuery
	if !errors.BindQuery(c, &query) {
		return
	}

	var (
		resp []entity.Segment
		err  error
	)
	switch {
	case query.TruckID != 0:
		resp, err = h.segments.ListByTruck(c.Request.Context(), query.TruckID)
	case query.Status != "":
		resp, err = h.segments.ListByStatus(c.Request.Context(), query.Status)
	default:
		errors.HandleGinError(c, errors.NewBadRequestError("нужен фильтр status или truck_id"))
		return
	}
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SegmentHandler) GetSegment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.segments.Get(c.Request.Context(), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SegmentHandler) UpdateSegment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.UpdateSegmentRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	resp, err := h.segments.Update(c.Request.Context(), id, req)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SegmentHandler) DeleteSegment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if errors.HandleGinError(c, h.segments.Delete(c.Request.Context(), id)) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SegmentHandler) AssignTruck(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.AssignTruckRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	resp, err := h.segments.AssignTruck(c.Request.Context(), id, req.TruckID)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SegmentHandler) StartSegment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.segments.Start(c.Request.Context(), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SegmentHandler) FinishSegment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.segments.Finish(c.Request.Context(), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SegmentHandler) SetActualCost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.SetActualCostRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	resp, err := h.segments.SetActualCost(c.Request.Context(), id, *req.ActualCost)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}
