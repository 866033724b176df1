package inventory

import (
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupInventoryRoutes(rg *gin.RouterGroup, controller *Controller) {

	// PUBLIC CHART AND SEAT READS

	charts := rg.Group("/charts")
	{
		charts.GET("", controller.ListCharts)                            // GET /api/v1/charts
		charts.GET("/:chartId", controller.GetChart)                     // GET /api/v1/charts/:chartId
		charts.GET("/:chartId/seats", controller.GetChartSeats)          // GET /api/v1/charts/:chartId/seats?status=&section=&category=
		charts.GET("/:chartId/seats/available", controller.GetAvailableSeats) // GET /api/v1/charts/:chartId/seats/available
		charts.GET("/:chartId/availability", controller.GetAvailability) // GET /api/v1/charts/:chartId/availability
	}

	seats := rg.Group("/seats")
	{
		seats.GET("/:id", controller.GetSeat) // GET /api/v1/seats/:id
	}

	// OPERATIONAL SEAT CONTROLS

	adminSeats := rg.Group("/admin/seats")
	adminSeats.Use(middleware.AdminAuth())
	{
		adminSeats.PUT("/block", controller.BlockSeats)     // PUT /api/v1/admin/seats/block
		adminSeats.PUT("/unblock", controller.UnblockSeats) // PUT /api/v1/admin/seats/unblock
	}
}
