package holds

import (
	"github.com/gin-gonic/gin"
)

func SetupHoldRoutes(rg *gin.RouterGroup, controller *Controller) {

	// HOLD LIFECYCLE

	holds := rg.Group("/holds")
	{
		holds.POST("", controller.CreateHold)                // POST /api/v1/holds
		holds.GET("/:holdId", controller.GetHold)            // GET /api/v1/holds/:holdId
		holds.POST("/:holdId/extend", controller.ExtendHold) // POST /api/v1/holds/:holdId/extend
		holds.DELETE("/:holdId", controller.ReleaseHold)     // DELETE /api/v1/holds/:holdId
		holds.POST("/:holdId/commit", controller.CommitHold) // POST /api/v1/holds/:holdId/commit
	}

	// SESSION-SCOPED HOLD READS

	sessions := rg.Group("/sessions")
	{
		sessions.GET("/:sessionId/holds", controller.GetSessionHolds) // GET /api/v1/sessions/:sessionId/holds
	}
}
