package inventory

import (
	"errors"
	"net/http"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CHART CATALOG

func (c *Controller) ListCharts(ctx *gin.Context) {
	var req ListChartsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid pagination parameters", nil, err.Error())
		return
	}

	charts, err := c.service.ListCharts(ctx.Request.Context(), req.Page, req.Limit)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list charts", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Charts retrieved successfully", charts, nil)
}

func (c *Controller) GetChart(ctx *gin.Context) {
	chartID := ctx.Param("chartId")
	if chartID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Chart ID is required", nil, "missing chart ID")
		return
	}

	chart, err := c.service.GetChart(ctx.Request.Context(), chartID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrChartNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get chart", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Chart retrieved successfully", chart, nil)
}

// LIVE SEAT STATE

func (c *Controller) GetChartSeats(ctx *gin.Context) {
	chartID := ctx.Param("chartId")
	if chartID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Chart ID is required", nil, "missing chart ID")
		return
	}

	var filter SeatFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid seat filter", nil, err.Error())
		return
	}

	seats, err := c.service.GetSeats(ctx.Request.Context(), chartID, filter)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrChartNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats retrieved successfully", seats, nil)
}

func (c *Controller) GetAvailableSeats(ctx *gin.Context) {
	chartID := ctx.Param("chartId")
	if chartID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Chart ID is required", nil, "missing chart ID")
		return
	}

	seats, err := c.service.GetAvailableSeats(ctx.Request.Context(), chartID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrChartNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get available seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Available seats retrieved successfully", seats, nil)
}

func (c *Controller) GetAvailability(ctx *gin.Context) {
	chartID := ctx.Param("chartId")
	if chartID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Chart ID is required", nil, "missing chart ID")
		return
	}

	summary, err := c.service.GetAvailability(ctx.Request.Context(), chartID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrChartNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get availability", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", summary, nil)
}

func (c *Controller) GetSeat(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Seat ID is required", nil, "missing seat ID")
		return
	}

	seat, err := c.service.GetSeatDetail(ctx.Request.Context(), id)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrSeatNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get seat", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat retrieved successfully", seat, nil)
}

// OPERATIONAL

func (c *Controller) BlockSeats(ctx *gin.Context) {
	var req BulkBlockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	if err := c.service.BlockSeats(ctx.Request.Context(), req); err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrSeatNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrSeatNotBlockable):
			statusCode = http.StatusConflict
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to block seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats blocked successfully", nil, nil)
}

func (c *Controller) UnblockSeats(ctx *gin.Context) {
	var req BulkBlockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	if err := c.service.UnblockSeats(ctx.Request.Context(), req); err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrSeatNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrSeatNotBlockable):
			statusCode = http.StatusConflict
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to unblock seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats unblocked successfully", nil, nil)
}
