package routes

import (
	"github.com/gin-gonic/gin"
	customerControllers "github.com/tutr76/APIFlowerDElivery/controllers/customer"
	"gorm.io/gorm"
)

func SetupCustomerRoutes(api *gin.RouterGroup, db *gorm.DB) {
	customers := api.Group("/customers")
	{
		// List customers, optionally filtered by ?search=
		customers.GET("", customerControllers.GetCustomers(db))
		customers.GET("/:id", customerControllers.GetCustomer(db))
		customers.POST("", customerControllers.CreateCustomer(db))
		customers.PUT("/:id", customerControllers.UpdateCustomer(db))
		customers.DELETE("/:id", customerControllers.DeleteCustomer(db))

		// Order history with aggregate spend
		customers.GET("/:id/orders", customerControllers.GetCustomerOrders(db))
	}
}
