package flowerControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"
	"github.com/tutr76/APIFlowerDElivery/apierrors"
	"github.com/tutr76/APIFlowerDElivery/models"
	"gorm.io/gorm"
)

// -------- Request Structs --------

type CreateFlowerRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Price       float64 `json:"price" binding:"required,gt=0,lte=100000"`
	InStock     int     `json:"in_stock" binding:"omitempty,gte=0"`
	IsAvailable *bool   `json:"is_available"`
}

type UpdateFlowerRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=100"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0,lte=100000"`
	InStock     *int     `json:"in_stock" binding:"omitempty,gte=0"`
	IsAvailable *bool    `json:"is_available"`
}

func parseID(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apierrors.Respond(c, apierrors.Validation("invalid flower id", nil))
		return 0, false
	}
	return uint(id64), true
}

// -------- Handlers --------

// GetFlowers lists the catalog. ?available=true narrows to flowers that are
// marked available and actually have stock.
func GetFlowers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Flower{})
		if c.Query("available") == "true" {
			query = query.Where("is_available = ? AND in_stock > 0", true)
		}

		var flowers []models.Flower
		if err := query.Order("name asc").Find(&flowers).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, flowers)
	}
}

func GetFlower(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var flower models.Flower
		if err := db.First(&flower, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.Respond(c, apierrors.NotFound("flower", id))
				return
			}
			apierrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, flower)
	}
}

func CreateFlower(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateFlowerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.Respond(c, apierrors.FromBinding(err))
			return
		}

		available := true
		if req.IsAvailable != nil {
			available = *req.IsAvailable
		}

		flower := models.Flower{
			Name:        req.Name,
			Price:       req.Price,
			InStock:     req.InStock,
			IsAvailable: available,
		}
		if err := db.Create(&flower).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}

		zlog.Info().Uint("flower_id", flower.ID).Str("name", flower.Name).Msg("flower created")
		c.JSON(http.StatusCreated, flower)
	}
}

// UpdateFlower applies a partial update. Replenishing stock above zero turns
// the availability flag back on.
func UpdateFlower(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var flower models.Flower
		if err := db.First(&flower, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.Respond(c, apierrors.NotFound("flower", id))
				return
			}
			apierrors.Respond(c, err)
			return
		}

		var req UpdateFlowerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.Respond(c, apierrors.FromBinding(err))
			return
		}

		updates := make(map[string]interface{})
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.InStock != nil {
			updates["in_stock"] = *req.InStock
			if *req.InStock > 0 {
				updates["is_available"] = true
			} else {
				updates["is_available"] = false
			}
		}
		if req.IsAvailable != nil {
			updates["is_available"] = *req.IsAvailable
		}

		if len(updates) > 0 {
			res := db.Model(&models.Flower{}).Where("id = ?", id).Updates(updates)
			if res.Error != nil {
				apierrors.Respond(c, res.Error)
				return
			}
			if res.RowsAffected == 0 {
				apierrors.Respond(c, apierrors.NotFound("flower", id))
				return
			}
		}

		if err := db.First(&flower, id).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, flower)
	}
}

// DeleteFlower refuses to remove a flower that any order item still
// references. Historical line items keep their flower rows.
func DeleteFlower(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var flower models.Flower
		if err := db.First(&flower, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.Respond(c, apierrors.NotFound("flower", id))
				return
			}
			apierrors.Respond(c, err)
			return
		}

		var refCount int64
		if err := db.Model(&models.OrderItem{}).Where("flower_id = ?", id).Count(&refCount).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}
		if refCount > 0 {
			apierrors.Respond(c, apierrors.BusinessRule(
				"cannot delete a flower referenced by order items",
				map[string]interface{}{"reference_count": refCount},
			))
			return
		}

		if err := db.Delete(&flower).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}

		zlog.Info().Uint("flower_id", id).Msg("flower deleted")
		c.JSON(http.StatusOK, gin.H{"message": "flower deleted"})
	}
}
