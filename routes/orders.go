package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	orderControllers "github.com/tutr76/APIFlowerDElivery/controllers/order"
	"gorm.io/gorm"
)

func SetupOrderRoutes(api *gin.RouterGroup, db *gorm.DB, statsLocation *time.Location) {
	orders := api.Group("/orders")
	{
		// Create a new order (atomic stock reservation)
		orders.POST("", orderControllers.CreateOrderHandler(db))

		// List with filtering and sorting
		orders.GET("", orderControllers.GetOrdersHandler(db))

		// Statistics (registered before /:id so gin does not shadow them)
		orders.GET("/statistics/daily", orderControllers.GetDailyStatisticsHandler(db, statsLocation))
		orders.GET("/statistics/revenue", orderControllers.GetRevenueStatisticsHandler(db))

		// websocket endpoint for real-time order updates
		orders.GET("/ws", orderControllers.OrderWebSocketHandler)

		orders.GET("/:id", orderControllers.GetOrderHandler(db))
		orders.PUT("/:id", orderControllers.UpdateOrderHandler(db))
		orders.PATCH("/:id/status", orderControllers.UpdateOrderStatusHandler(db))
		orders.DELETE("/:id", orderControllers.DeleteOrderHandler(db))
	}
}
