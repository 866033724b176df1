package session

import (
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSessionRoutes(rg *gin.RouterGroup, controller *Controller) {

	// BROWSING SESSION LIFECYCLE

	sessions := rg.Group("/sessions")
	{
		sessions.POST("", controller.CreateSession) // POST /api/v1/sessions
	}

	// Everything past creation requires the token minted for the session.
	authed := sessions.Group("")
	authed.Use(middleware.SessionAuth())
	{
		authed.GET("/:sessionId", controller.GetSession)              // GET /api/v1/sessions/:sessionId
		authed.DELETE("/:sessionId", controller.EndSession)           // DELETE /api/v1/sessions/:sessionId
		authed.POST("/:sessionId/pointer", controller.ResolvePointer) // POST /api/v1/sessions/:sessionId/pointer
		authed.POST("/:sessionId/select", controller.SelectSeat)      // POST /api/v1/sessions/:sessionId/select
		authed.POST("/:sessionId/deselect", controller.DeselectSeat)  // POST /api/v1/sessions/:sessionId/deselect
		authed.POST("/:sessionId/hold", controller.HoldSelection)     // POST /api/v1/sessions/:sessionId/hold
		authed.POST("/:sessionId/extend", controller.ExtendHold)      // POST /api/v1/sessions/:sessionId/extend
	}
}
