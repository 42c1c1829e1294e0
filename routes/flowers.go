package routes

import (
	"github.com/gin-gonic/gin"
	flowerControllers "github.com/tutr76/APIFlowerDElivery/controllers/flower"
	"github.com/tutr76/APIFlowerDElivery/middleware"
	"gorm.io/gorm"
)

func SetupFlowerRoutes(api *gin.RouterGroup, db *gorm.DB) {
	flowers := api.Group("/flowers")
	{
		// Public catalog; ?available=true narrows to sellable flowers
		flowers.GET("", flowerControllers.GetFlowers(db))
		flowers.GET("/:id", flowerControllers.GetFlower(db))
	}

	// Catalog management requires the admin API key.
	admin := api.Group("/flowers")
	admin.Use(middleware.ValidateAPIKey)
	{
		admin.POST("", flowerControllers.CreateFlower(db))
		admin.PUT("/:id", flowerControllers.UpdateFlower(db))
		admin.DELETE("/:id", flowerControllers.DeleteFlower(db))
		admin.GET("/export-excel", flowerControllers.ExportFlowersToExcel(db))
	}
}
