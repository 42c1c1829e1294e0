package orderControllers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutr76/APIFlowerDElivery/apierrors"
	"github.com/tutr76/APIFlowerDElivery/models"
	"gorm.io/gorm"
)

// GetDailyStatisticsHandler aggregates the orders whose timestamp falls within
// [day 00:00, next day 00:00) in the configured location.
func GetDailyStatisticsHandler(db *gorm.DB, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := time.Now().In(loc)
		if ds := c.Query("date"); ds != "" {
			parsed, err := time.ParseInLocation("2006-01-02", ds, loc)
			if err != nil {
				apierrors.Respond(c, apierrors.Validation("invalid date", nil))
				return
			}
			target = parsed
		}

		dayStart := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, loc)
		dayEnd := dayStart.AddDate(0, 0, 1)

		var orders []models.Order
		if err := db.
			Where("order_date >= ? AND order_date < ?", dayStart, dayEnd).
			Find(&orders).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}

		var totalRevenue float64
		type bucket struct {
			count   int
			revenue float64
		}
		buckets := make(map[models.OrderStatus]*bucket)
		for _, o := range orders {
			totalRevenue += o.TotalAmount
			b, ok := buckets[o.Status]
			if !ok {
				b = &bucket{}
				buckets[o.Status] = b
			}
			b.count++
			b.revenue += o.TotalAmount
		}

		average := 0.0
		if len(orders) > 0 {
			average = totalRevenue / float64(len(orders))
		}

		statuses := make([]string, 0, len(buckets))
		for s := range buckets {
			statuses = append(statuses, string(s))
		}
		sort.Strings(statuses)

		distribution := make([]gin.H, 0, len(statuses))
		for _, s := range statuses {
			b := buckets[models.OrderStatus(s)]
			distribution = append(distribution, gin.H{
				"status":  s,
				"count":   b.count,
				"revenue": b.revenue,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"date":                dayStart.Format("2006-01-02"),
			"total_orders":        len(orders),
			"total_revenue":       totalRevenue,
			"average_order_value": average,
			"status_distribution": distribution,
		})
	}
}

// GetRevenueStatisticsHandler sums revenue and order counts over an optional
// date window.
func GetRevenueStatisticsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var start, end *time.Time
		if s := c.Query("startDate"); s != "" {
			t, err := parseDateParam(s)
			if err != nil {
				apierrors.Respond(c, apierrors.Validation("invalid startDate", nil))
				return
			}
			start = &t
		}
		if e := c.Query("endDate"); e != "" {
			t, err := parseDateParam(e)
			if err != nil {
				apierrors.Respond(c, apierrors.Validation("invalid endDate", nil))
				return
			}
			end = &t
		}

		filtered := func() *gorm.DB {
			q := db.Model(&models.Order{})
			if start != nil {
				q = q.Where("order_date >= ?", *start)
			}
			if end != nil {
				q = q.Where("order_date <= ?", *end)
			}
			return q
		}

		var revenue float64
		if err := filtered().
			Select("COALESCE(SUM(total_amount), 0)").
			Scan(&revenue).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}

		var orderCount int64
		if err := filtered().Count(&orderCount).Error; err != nil {
			apierrors.Respond(c, err)
			return
		}

		average := 0.0
		if orderCount > 0 {
			average = revenue / float64(orderCount)
		}

		rangeLabel := func(t *time.Time) string {
			if t == nil {
				return "all time"
			}
			return t.Format("2006-01-02")
		}

		c.JSON(http.StatusOK, gin.H{
			"total_revenue":             revenue,
			"order_count":               orderCount,
			"average_revenue_per_order": average,
			"date_range": gin.H{
				"start": rangeLabel(start),
				"end":   rangeLabel(end),
			},
		})
	}
}
