package selection

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

// FindBestAvailable proposes the best seat set for the requested
// quantity. A short pool is a 200 with the shortage flag set, never an
// error: the caller decides whether a partial proposal is acceptable.
func (c *Controller) FindBestAvailable(ctx *gin.Context) {
	chartID := ctx.Param("chartId")
	if chartID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Chart ID is required", nil, "missing chart ID")
		return
	}

	var req BestAvailableRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid search criteria", nil, err.Error())
		return
	}

	result, err := c.service.FindBestAvailable(ctx.Request.Context(), chartID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, inventory.ErrChartNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrTooManySeats):
			statusCode = http.StatusUnprocessableEntity
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to find best available seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Best available seats retrieved successfully", result, nil)
}
