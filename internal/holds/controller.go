package holds

import (
	"errors"
	"io"
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

// CreateHold places a hold on the requested seats. A seat conflict is a
// normal outcome: the response succeeds with success=false and the
// contested seats listed, so clients can re-render and retry.
func (c *Controller) CreateHold(ctx *gin.Context) {
	var req CreateHoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid hold request", nil, err.Error())
		return
	}

	result, err := c.service.CreateHold(ctx.Request.Context(), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, inventory.ErrSeatNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrInvalidSeatID), errors.Is(err, ErrSeatsSpanCharts), errors.Is(err, inventory.ErrNoSeats):
			statusCode = http.StatusBadRequest
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to create hold", nil, err.Error())
		return
	}

	if !result.Success {
		response.RespondJSON(ctx, "success", http.StatusOK, "Some seats are no longer available", result, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Hold created successfully", result, nil)
}

func (c *Controller) GetHold(ctx *gin.Context) {
	holdID := ctx.Param("holdId")
	if holdID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Hold ID is required", nil, "missing hold ID")
		return
	}

	hold, err := c.service.GetHold(ctx.Request.Context(), holdID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrHoldNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get hold", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold retrieved successfully", hold, nil)
}

func (c *Controller) ExtendHold(ctx *gin.Context) {
	holdID := ctx.Param("holdId")
	if holdID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Hold ID is required", nil, "missing hold ID")
		return
	}

	// Body is optional; an empty one means the default grant.
	var req ExtendHoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid extend request", nil, err.Error())
		return
	}

	hold, err := c.service.ExtendHold(ctx.Request.Context(), holdID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrHoldNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrHoldNotActive):
			statusCode = http.StatusConflict
		case errors.Is(err, ErrExtendLimit):
			statusCode = http.StatusUnprocessableEntity
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to extend hold", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold extended successfully", hold, nil)
}

func (c *Controller) ReleaseHold(ctx *gin.Context) {
	holdID := ctx.Param("holdId")
	if holdID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Hold ID is required", nil, "missing hold ID")
		return
	}

	var req ReleaseHoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid release request", nil, err.Error())
		return
	}

	if err := c.service.ReleaseHold(ctx.Request.Context(), holdID, req.Reason); err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrHoldNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to release hold", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold released successfully", nil, nil)
}

// CommitHold finalizes a hold into a sale. A hold that expired or lost
// its seats returns 409; checkout must start over with a fresh hold.
func (c *Controller) CommitHold(ctx *gin.Context) {
	holdID := ctx.Param("holdId")
	if holdID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Hold ID is required", nil, "missing hold ID")
		return
	}

	var req CommitHoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid commit request", nil, err.Error())
		return
	}

	hold, err := c.service.CommitHold(ctx.Request.Context(), holdID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrHoldNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrHoldNotActive):
			statusCode = http.StatusConflict
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to commit hold", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold committed successfully", hold, nil)
}

func (c *Controller) GetSessionHolds(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")
	if sessionID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Session ID is required", nil, "missing session ID")
		return
	}

	holds, err := c.service.GetSessionHolds(ctx.Request.Context(), sessionID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list session holds", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Session holds retrieved successfully", holds, nil)
}
