package selection

import (
	"github.com/gin-gonic/gin"
)

func SetupSelectionRoutes(rg *gin.RouterGroup, controller *Controller) {

	// BEST-AVAILABLE SEARCH

	charts := rg.Group("/charts")
	{
		charts.GET("/:chartId/best-available", controller.FindBestAvailable) // GET /api/v1/charts/:chartId/best-available?quantity=&max_price=&section=&together=
	}
}
