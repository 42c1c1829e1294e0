package orderControllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutr76/APIFlowerDElivery/apierrors"
	"github.com/tutr76/APIFlowerDElivery/models"
	"gorm.io/gorm"
)

// parseDateParam accepts a plain date or an RFC 3339 timestamp.
func parseDateParam(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// GetOrdersHandler lists orders with the filter and sort surface of the API:
// status (exact), customerId, startDate/endDate (both inclusive), sortBy in
// {date, amount, status}, descending (default true).
func GetOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.
			Preload("Customer").
			Preload("Items").
			Preload("Items.Flower").
			Model(&models.Order{})

		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		if cid := c.Query("customerId"); cid != "" {
			id64, err := strconv.ParseUint(cid, 10, 32)
			if err != nil {
				apierrors.Respond(c, apierrors.Validation("invalid customerId", nil))
				return
			}
			query = query.Where("customer_id = ?", uint(id64))
		}

		if start := c.Query("startDate"); start != "" {
			t, err := parseDateParam(start)
			if err != nil {
				apierrors.Respond(c, apierrors.Validation("invalid startDate", nil))
				return
			}
			query = query.Where("order_date >= ?", t)
		}

		if end := c.Query("endDate"); end != "" {
			t, err := parseDateParam(end)
			if err != nil {
				apierrors.Respond(c, apierrors.Validation("invalid endDate", nil))
				return
			}
			query = query.Where("order_date <= ?", t)
		}

		column := "order_date"
		switch strings.ToLower(c.DefaultQuery("sortBy", "date")) {
		case "amount":
			column = "total_amount"
		case "status":
			column = "status"
		}

		direction := "DESC"
		if c.DefaultQuery("descending", "true") == "false" {
			direction = "ASC"
		}

		var orders []models.Order
		if err := query.Order(column + " " + direction).Find(&orders).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}

		responses := make([]gin.H, 0, len(orders))
		for _, o := range orders {
			responses = append(responses, orderResponse(o))
		}
		c.JSON(http.StatusOK, responses)
	}
}
