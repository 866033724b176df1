package seatmap

import "github.com/gin-gonic/gin"

func SetupSeatmapRoutes(rg *gin.RouterGroup, controller *Controller) {
	charts := rg.Group("/charts")
	{
		charts.POST("/:chartId/render", controller.RenderChart)
		charts.POST("/:chartId/hit-test", controller.HitTest)
	}
}
