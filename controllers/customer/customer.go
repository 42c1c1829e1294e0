package customerControllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"
	"github.com/tutr76/APIFlowerDElivery/apierrors"
	"github.com/tutr76/APIFlowerDElivery/models"
	"gorm.io/gorm"
)

// -------- Request Structs --------

type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Phone   string `json:"phone" binding:"required,max=20"`
	Email   string `json:"email" binding:"omitempty,email,max=100"`
	Address string `json:"address" binding:"omitempty,max=255"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=100"`
	Phone   *string `json:"phone" binding:"omitempty,max=20"`
	Email   *string `json:"email" binding:"omitempty,email,max=100"`
	Address *string `json:"address" binding:"omitempty,max=255"`
}

func parseID(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apierrors.Respond(c, apierrors.Validation("invalid customer id", nil))
		return 0, false
	}
	return uint(id64), true
}

// -------- Handlers --------

// GetCustomers lists customers, optionally filtered by a case-insensitive
// substring search over name, phone and email. Ordered by name ascending.
func GetCustomers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Customer{})

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			pattern := "%" + strings.ToLower(search) + "%"
			query = query.Where(
				"LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ?",
				pattern, pattern, pattern,
			)
		}

		var customers []models.Customer
		if err := query.Order("name asc").Find(&customers).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}

func GetCustomer(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var customer models.Customer
		if err := db.First(&customer, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.Respond(c, apierrors.NotFound("customer", id))
				return
			}
			apierrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

// CreateCustomer rejects a phone number already used by another customer.
func CreateCustomer(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.Respond(c, apierrors.FromBinding(err))
			return
		}

		var count int64
		if err := db.Model(&models.Customer{}).Where("phone = ?", req.Phone).Count(&count).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}
		if count > 0 {
			apierrors.Respond(c, apierrors.Conflict("customer with this phone already exists"))
			return
		}

		customer := models.Customer{
			Name:    req.Name,
			Phone:   req.Phone,
			Email:   req.Email,
			Address: req.Address,
		}
		if err := db.Create(&customer).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}

		zlog.Info().Uint("customer_id", customer.ID).Msg("customer created")
		c.JSON(http.StatusCreated, customer)
	}
}

// UpdateCustomer applies a partial update. A phone already used by a different
// customer is a conflict; re-submitting the customer's own phone is fine.
func UpdateCustomer(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var customer models.Customer
		if err := db.First(&customer, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.Respond(c, apierrors.NotFound("customer", id))
				return
			}
			apierrors.Respond(c, err)
			return
		}

		var req UpdateCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.Respond(c, apierrors.FromBinding(err))
			return
		}

		if req.Phone != nil {
			var count int64
			if err := db.Model(&models.Customer{}).
				Where("phone = ? AND id <> ?", *req.Phone, id).
				Count(&count).Error; err != nil {
				apierrors.Respond(c, err)
				return
			}
			if count > 0 {
				apierrors.Respond(c, apierrors.Conflict("customer with this phone already exists"))
				return
			}
		}

		updates := make(map[string]interface{})
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Phone != nil {
			updates["phone"] = *req.Phone
		}
		if req.Email != nil {
			updates["email"] = *req.Email
		}
		if req.Address != nil {
			updates["address"] = *req.Address
		}

		if len(updates) > 0 {
			res := db.Model(&models.Customer{}).Where("id = ?", id).Updates(updates)
			if res.Error != nil {
				apierrors.Respond(c, res.Error)
				return
			}
			// Row vanished between read and write.
			if res.RowsAffected == 0 {
				apierrors.Respond(c, apierrors.NotFound("customer", id))
				return
			}
		}

		if err := db.First(&customer, id).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

// DeleteCustomer refuses to remove a customer who still owns orders, so the
// caller gets a business error instead of a foreign key violation.
func DeleteCustomer(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var customer models.Customer
		if err := db.First(&customer, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.Respond(c, apierrors.NotFound("customer", id))
				return
			}
			apierrors.Respond(c, err)
			return
		}

		var orderCount int64
		if err := db.Model(&models.Order{}).Where("customer_id = ?", id).Count(&orderCount).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}
		if orderCount > 0 {
			apierrors.Respond(c, apierrors.BusinessRule(
				"cannot delete a customer who has orders",
				map[string]interface{}{"order_count": orderCount},
			))
			return
		}

		if err := db.Delete(&customer).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}

		zlog.Info().Uint("customer_id", id).Msg("customer deleted")
		c.JSON(http.StatusOK, gin.H{"message": "customer deleted"})
	}
}

// GetCustomerOrders returns the customer's order history with aggregate spend.
func GetCustomerOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var count int64
		if err := db.Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}
		if count == 0 {
			apierrors.Respond(c, apierrors.NotFound("customer", id))
			return
		}

		var orders []models.Order
		if err := db.
			Where("customer_id = ?", id).
			Preload("Items").
			Order("order_date DESC").
			Find(&orders).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}

		var totalSpent float64
		summaries := make([]gin.H, 0, len(orders))
		for _, o := range orders {
			totalSpent += o.TotalAmount
			summaries = append(summaries, gin.H{
				"id":               o.ID,
				"order_ref":        o.OrderRef,
				"order_date":       o.OrderDate,
				"total_amount":     o.TotalAmount,
				"status":           o.Status,
				"delivery_address": o.DeliveryAddress,
				"recipient_name":   o.RecipientName,
				"item_count":       len(o.Items),
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"customer_id":  id,
			"total_orders": len(orders),
			"total_spent":  totalSpent,
			"orders":       summaries,
		})
	}
}
