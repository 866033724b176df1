package session

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/holds"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/utils/response"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

func (c *Controller) CreateSession(ctx *gin.Context) {
	var req CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	result, err := c.service.CreateSession(ctx.Request.Context(), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inventory.ErrChartNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to create session", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Session created successfully", result, nil)
}

func (c *Controller) GetSession(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	result, err := c.service.GetSession(ctx.Request.Context(), sessionID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrSessionNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get session", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Session retrieved successfully", result, nil)
}

// ResolvePointer turns a raw pointer event into a selection change.
// Taps that miss or land on ineligible seats succeed with the action
// set accordingly; only a dead session or a failed lookup errors.
func (c *Controller) ResolvePointer(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	var req PointerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid pointer request", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	result, err := c.service.ResolvePointer(ctx.Request.Context(), sessionID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrSessionNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, inventory.ErrChartNotFound):
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to resolve pointer", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pointer resolved successfully", result, nil)
}

func (c *Controller) SelectSeat(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	var req SeatActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	result, err := c.service.SelectSeat(ctx.Request.Context(), sessionID, req.SeatID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, inventory.ErrSeatNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrSelectionLimit):
			statusCode = http.StatusUnprocessableEntity
		case errors.Is(err, ErrSeatNotSelectable):
			statusCode = http.StatusConflict
		case errors.Is(err, ErrChartMismatch):
			statusCode = http.StatusBadRequest
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to select seat", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat selected successfully", result, nil)
}

func (c *Controller) DeselectSeat(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	var req SeatActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	result, err := c.service.DeselectSeat(ctx.Request.Context(), sessionID, req.SeatID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrSessionNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrSeatNotSelected):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrSeatHeld), errors.Is(err, ErrHoldInFlight):
			statusCode = http.StatusConflict
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to deselect seat", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat deselected successfully", result, nil)
}

// HoldSelection takes the pending selection through the hold
// lifecycle. Losing seats to another buyer is a 200 with the rejected
// subset listed, mirroring how the hold API reports contention.
func (c *Controller) HoldSelection(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	var req HoldSelectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	result, err := c.service.HoldSelection(ctx.Request.Context(), sessionID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrSessionNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrNoSelection):
			statusCode = http.StatusBadRequest
		case errors.Is(err, ErrHoldActive), errors.Is(err, ErrHoldInFlight):
			statusCode = http.StatusConflict
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to hold selection", nil, err.Error())
		return
	}

	if !result.Success {
		response.RespondJSON(ctx, "success", http.StatusOK, "Some seats are no longer available", result, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Selection held successfully", result, nil)
}

func (c *Controller) ExtendHold(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	var req ExtendSelectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	result, err := c.service.ExtendHold(ctx.Request.Context(), sessionID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, holds.ErrHoldNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrNoActiveHold), errors.Is(err, holds.ErrHoldNotActive):
			statusCode = http.StatusConflict
		case errors.Is(err, holds.ErrExtendLimit):
			statusCode = http.StatusUnprocessableEntity
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to extend hold", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold extended successfully", result, nil)
}

// EndSession tears the session down and best-effort releases its live
// hold, so navigating away frees seats ahead of the sweep.
func (c *Controller) EndSession(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	if err := c.service.EndSession(ctx.Request.Context(), sessionID); err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrSessionNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to end session", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Session ended successfully", nil, nil)
}
