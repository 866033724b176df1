package seatmap

import (
	"errors"
	"net/http"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// RenderChart returns the full draw-command scene for a chart as seen
// through the client's viewport and transform.
func (c *Controller) RenderChart(ctx *gin.Context) {
	chartID := ctx.Param("chartId")
	if chartID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Chart ID is required", nil, "missing chart ID")
		return
	}

	var req RenderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid render request", nil, err.Error())
		return
	}

	result, err := c.service.RenderChart(ctx.Request.Context(), chartID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inventory.ErrChartNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to render chart", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Chart rendered successfully", result, nil)
}

// HitTest resolves a pointer position to the seat under it. A miss is
// a successful response with hit set to false.
func (c *Controller) HitTest(ctx *gin.Context) {
	chartID := ctx.Param("chartId")
	if chartID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Chart ID is required", nil, "missing chart ID")
		return
	}

	var req HitTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid hit test request", nil, err.Error())
		return
	}

	result, err := c.service.HitTest(ctx.Request.Context(), chartID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inventory.ErrChartNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to resolve pointer", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pointer resolved successfully", result, nil)
}
