package orderControllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/tutr76/APIFlowerDElivery/apierrors"
	"github.com/tutr76/APIFlowerDElivery/models"
	"gorm.io/gorm"
)

// -------- Request Structs --------

type OrderItemInput struct {
	FlowerID uint `json:"flower_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1,max=1000"`
}

type CreateOrderRequest struct {
	CustomerID      uint             `json:"customer_id" binding:"required"`
	DeliveryAddress string           `json:"delivery_address" binding:"required,max=255"`
	RecipientName   string           `json:"recipient_name" binding:"required,max=100"`
	RecipientPhone  string           `json:"recipient_phone" binding:"required,max=20"`
	DeliveryDate    string           `json:"delivery_date" binding:"omitempty,datetime=2006-01-02"`
	DeliveryTime    string           `json:"delivery_time" binding:"omitempty,datetime=15:04"`
	Notes           string           `json:"notes" binding:"omitempty,max=500"`
	Items           []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	DeliveryAddress *string `json:"delivery_address" binding:"omitempty,max=255"`
	RecipientName   *string `json:"recipient_name" binding:"omitempty,max=100"`
	RecipientPhone  *string `json:"recipient_phone" binding:"omitempty,max=20"`
	DeliveryDate    *string `json:"delivery_date" binding:"omitempty,datetime=2006-01-02"`
	DeliveryTime    *string `json:"delivery_time" binding:"omitempty,datetime=15:04"`
	Notes           *string `json:"notes" binding:"omitempty,max=500"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// -------- Helpers --------

func parseID(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apierrors.Respond(c, apierrors.Validation("invalid order id", nil))
		return 0, false
	}
	return uint(id64), true
}

// Generate unique order reference, e.g. 20250908130500-<uuid4>.
func generateOrderRef() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

// orderResponse is the resource representation: customer and flower names
// expanded, per-line subtotals derived.
func orderResponse(o models.Order) gin.H {
	items := make([]gin.H, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, gin.H{
			"id":          it.ID,
			"flower_id":   it.FlowerID,
			"flower_name": it.Flower.Name,
			"quantity":    it.Quantity,
			"price":       it.Price,
			"subtotal":    it.Subtotal(),
		})
	}

	resp := gin.H{
		"id":               o.ID,
		"order_ref":        o.OrderRef,
		"customer_id":      o.CustomerID,
		"customer_name":    o.Customer.Name,
		"order_date":       o.OrderDate,
		"total_amount":     o.TotalAmount,
		"status":           o.Status,
		"delivery_address": o.DeliveryAddress,
		"recipient_name":   o.RecipientName,
		"recipient_phone":  o.RecipientPhone,
		"notes":            o.Notes,
		"items":            items,
	}
	if o.DeliveryDate != nil {
		resp["delivery_date"] = o.DeliveryDate.Format("2006-01-02")
	}
	if o.DeliveryTime != nil {
		resp["delivery_time"] = *o.DeliveryTime
	}
	return resp
}

func loadOrder(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := db.
		Preload("Customer").
		Preload("Items").
		Preload("Items.Flower").
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("order", id)
		}
		return nil, err
	}
	return &order, nil
}

// restockItems returns every line's quantity to its flower and forces the
// availability flag back on, even if the flower was disabled for other reasons.
func restockItems(tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		if err := tx.Model(&models.Flower{}).
			Where("id = ?", item.FlowerID).
			Updates(map[string]interface{}{
				"in_stock":     gorm.Expr("in_stock + ?", item.Quantity),
				"is_available": true,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

// -------- Core Logic --------

// CreateOrder validates and reserves stock for every line, captures unit
// prices, and persists the order header with its items in one transaction.
// Any failure rolls back all stock decrements.
func CreateOrder(db *gorm.DB, req CreateOrderRequest) (*models.Order, error) {
	var customer models.Customer
	if err := db.First(&customer, req.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.BusinessRule(
				fmt.Sprintf("customer with id %d not found", req.CustomerID),
				map[string]interface{}{"customer_id": req.CustomerID},
			)
		}
		return nil, err
	}

	order := models.Order{
		OrderRef:        generateOrderRef(),
		CustomerID:      req.CustomerID,
		OrderDate:       time.Now(),
		Status:          models.OrderStatusNew,
		DeliveryAddress: req.DeliveryAddress,
		RecipientName:   req.RecipientName,
		RecipientPhone:  req.RecipientPhone,
		Notes:           req.Notes,
	}
	if req.DeliveryDate != "" {
		d, err := time.Parse("2006-01-02", req.DeliveryDate)
		if err != nil {
			return nil, apierrors.Validation("invalid delivery_date", nil)
		}
		order.DeliveryDate = &d
	}
	if req.DeliveryTime != "" {
		t := req.DeliveryTime
		order.DeliveryTime = &t
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var total float64
		for _, line := range req.Items {
			var flower models.Flower
			if err := tx.First(&flower, line.FlowerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apierrors.BusinessRule(
						fmt.Sprintf("flower with id %d not found", line.FlowerID),
						map[string]interface{}{"flower_id": line.FlowerID},
					)
				}
				return err
			}

			if !flower.IsAvailable {
				return apierrors.BusinessRule(
					fmt.Sprintf("flower %q is unavailable", flower.Name),
					map[string]interface{}{"flower_id": flower.ID},
				)
			}
			if flower.InStock < line.Quantity {
				return apierrors.BusinessRule(
					fmt.Sprintf("insufficient stock for flower %q", flower.Name),
					map[string]interface{}{
						"flower_id": flower.ID,
						"available": flower.InStock,
						"requested": line.Quantity,
					},
				)
			}

			// Guarded decrement: the predicate makes a concurrent loser fail
			// here instead of driving stock negative.
			res := tx.Model(&models.Flower{}).
				Where("id = ? AND in_stock >= ?", line.FlowerID, line.Quantity).
				UpdateColumn("in_stock", gorm.Expr("in_stock - ?", line.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apierrors.BusinessRule(
					fmt.Sprintf("insufficient stock for flower %q", flower.Name),
					map[string]interface{}{
						"flower_id": flower.ID,
						"requested": line.Quantity,
					},
				)
			}

			if err := tx.Model(&models.Flower{}).
				Where("id = ? AND in_stock = 0", line.FlowerID).
				UpdateColumn("is_available", false).Error; err != nil {
				return err
			}

			total += flower.Price * float64(line.Quantity)
			order.Items = append(order.Items, models.OrderItem{
				FlowerID: line.FlowerID,
				Quantity: line.Quantity,
				Price:    flower.Price,
			})
		}

		order.TotalAmount = total
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	zlog.Info().
		Uint("order_id", order.ID).
		Str("order_ref", order.OrderRef).
		Float64("total_amount", order.TotalAmount).
		Msg("order created")
	return &order, nil
}

// -------- Handlers --------

func CreateOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.Respond(c, apierrors.FromBinding(err))
			return
		}

		order, err := CreateOrder(db, req)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		created, err := loadOrder(db, order.ID)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}
		broadcastOrderEvent("order_created", *created)
		c.JSON(http.StatusCreated, orderResponse(*created))
	}
}

func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		order, err := loadOrder(db, id)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, orderResponse(*order))
	}
}

// UpdateOrderHandler updates delivery metadata. Status changes go through the
// PATCH endpoint so transitions stay validated.
func UpdateOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var count int64
		if err := db.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}
		if count == 0 {
			apierrors.Respond(c, apierrors.NotFound("order", id))
			return
		}

		var req UpdateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.Respond(c, apierrors.FromBinding(err))
			return
		}

		updates := make(map[string]interface{})
		if req.DeliveryAddress != nil {
			updates["delivery_address"] = *req.DeliveryAddress
		}
		if req.RecipientName != nil {
			updates["recipient_name"] = *req.RecipientName
		}
		if req.RecipientPhone != nil {
			updates["recipient_phone"] = *req.RecipientPhone
		}
		if req.DeliveryDate != nil {
			d, err := time.Parse("2006-01-02", *req.DeliveryDate)
			if err != nil {
				apierrors.Respond(c, apierrors.Validation("invalid delivery_date", nil))
				return
			}
			updates["delivery_date"] = d
		}
		if req.DeliveryTime != nil {
			updates["delivery_time"] = *req.DeliveryTime
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}

		if len(updates) > 0 {
			res := db.Model(&models.Order{}).Where("id = ?", id).Updates(updates)
			if res.Error != nil {
				apierrors.Respond(c, res.Error)
				return
			}
			// Row vanished between read and write.
			if res.RowsAffected == 0 {
				apierrors.Respond(c, apierrors.NotFound("order", id))
				return
			}
		}

		order, err := loadOrder(db, id)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, orderResponse(*order))
	}
}

// UpdateOrderStatusHandler moves an order through the status state machine.
// Cancellation returns every line's stock, same as deletion.
func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.Respond(c, apierrors.FromBinding(err))
			return
		}

		newStatus, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			apierrors.Respond(c, apierrors.Validation(
				fmt.Sprintf("unknown order status %q", req.Status), nil))
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			var order models.Order
			if err := tx.Preload("Items").First(&order, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apierrors.NotFound("order", id)
				}
				return err
			}

			if !order.Status.CanTransitionTo(newStatus) {
				return apierrors.BusinessRule(
					fmt.Sprintf("invalid status transition from %q to %q", order.Status, newStatus),
					map[string]interface{}{"from": order.Status, "to": newStatus},
				)
			}

			if newStatus == models.OrderStatusCancelled {
				if err := restockItems(tx, order.Items); err != nil {
					return err
				}
			}

			return tx.Model(&order).Update("status", newStatus).Error
		})
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		order, err := loadOrder(db, id)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		zlog.Info().
			Uint("order_id", id).
			Str("status", string(order.Status)).
			Msg("order status updated")
		broadcastOrderEvent("status_changed", *order)
		c.JSON(http.StatusOK, orderResponse(*order))
	}
}

// DeleteOrderHandler removes an order and restores each flower's stock by the
// line's original quantity. Cancelled orders were restocked already, so they
// skip the restock pass.
func DeleteOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var order models.Order
			if err := tx.Preload("Items").First(&order, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apierrors.NotFound("order", id)
				}
				return err
			}

			if order.Status != models.OrderStatusCancelled {
				if err := restockItems(tx, order.Items); err != nil {
					return err
				}
			}

			if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&order).Error
		})
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		zlog.Info().Uint("order_id", id).Msg("order deleted")
		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}
