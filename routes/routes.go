package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes is the single entry-point that wires up the customer, flower and
// order route groups under /api.
func SetupRoutes(r *gin.Engine, db *gorm.DB, statsLocation *time.Location) {
	api := r.Group("/api")

	SetupCustomerRoutes(api, db)
	SetupFlowerRoutes(api, db)
	SetupOrderRoutes(api, db, statsLocation)
}
