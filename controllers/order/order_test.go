package orderControllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutr76/APIFlowerDElivery/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Customer{},
		&models.Flower{},
		&models.Order{},
		&models.OrderItem{},
	))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func setupRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/orders", CreateOrderHandler(db))
	r.GET("/api/orders", GetOrdersHandler(db))
	r.GET("/api/orders/statistics/daily", GetDailyStatisticsHandler(db, time.Local))
	r.GET("/api/orders/statistics/revenue", GetRevenueStatisticsHandler(db))
	r.GET("/api/orders/:id", GetOrderHandler(db))
	r.PUT("/api/orders/:id", UpdateOrderHandler(db))
	r.PATCH("/api/orders/:id/status", UpdateOrderStatusHandler(db))
	r.DELETE("/api/orders/:id", DeleteOrderHandler(db))
	return r
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	var l []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	return l
}

func seedCustomer(t *testing.T, db *gorm.DB) models.Customer {
	customer := models.Customer{Name: "Anna", Phone: "+7-900-000-0001", Email: "anna@example.com"}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

func seedFlower(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Flower {
	flower := models.Flower{Name: name, Price: price, InStock: stock, IsAvailable: true}
	require.NoError(t, db.Create(&flower).Error)
	return flower
}

func reloadFlower(t *testing.T, db *gorm.DB, id uint) models.Flower {
	var flower models.Flower
	require.NoError(t, db.First(&flower, id).Error)
	return flower
}

func orderRequest(customerID uint, items ...OrderItemInput) gin.H {
	return gin.H{
		"customer_id":      customerID,
		"delivery_address": "12 Tulip Lane",
		"recipient_name":   "Boris",
		"recipient_phone":  "+7-900-000-0002",
		"items":            items,
	}
}

func TestCreateOrder_Success(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	roses := seedFlower(t, db, "Rose", 150, 10)
	tulips := seedFlower(t, db, "Tulip", 80, 5)

	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
		OrderItemInput{FlowerID: roses.ID, Quantity: 3},
		OrderItemInput{FlowerID: tulips.ID, Quantity: 5},
	))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeMap(t, w)
	assert.InDelta(t, 3*150+5*80.0, resp["total_amount"], 0.001)
	assert.Equal(t, "new", resp["status"])
	assert.Equal(t, "Anna", resp["customer_name"])
	assert.NotEmpty(t, resp["order_ref"])
	assert.Len(t, resp["items"], 2)

	// Stock decremented by exactly the requested quantities.
	assert.Equal(t, 7, reloadFlower(t, db, roses.ID).InStock)

	// Tulips hit zero and flip unavailable.
	emptied := reloadFlower(t, db, tulips.ID)
	assert.Equal(t, 0, emptied.InStock)
	assert.False(t, emptied.IsAvailable)
}

func TestCreateOrder_PriceSnapshot(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	flower := seedFlower(t, db, "Peony", 200, 10)

	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
		OrderItemInput{FlowerID: flower.ID, Quantity: 2},
	))
	require.Equal(t, http.StatusCreated, w.Code)

	// Later price changes must not touch the captured line price.
	require.NoError(t, db.Model(&models.Flower{}).Where("id = ?", flower.ID).
		Update("price", 999.0).Error)

	var item models.OrderItem
	require.NoError(t, db.First(&item, "flower_id = ?", flower.ID).Error)
	assert.InDelta(t, 200.0, item.Price, 0.001)
	assert.InDelta(t, 400.0, item.Subtotal(), 0.001)
}

func TestCreateOrder_InsufficientStock_FullRollback(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	roses := seedFlower(t, db, "Rose", 150, 10)
	tulips := seedFlower(t, db, "Tulip", 80, 3)

	// The rose line would succeed on its own; the tulip line fails, so
	// nothing may be applied.
	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
		OrderItemInput{FlowerID: roses.ID, Quantity: 2},
		OrderItemInput{FlowerID: tulips.ID, Quantity: 5},
	))
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeMap(t, w)
	details := resp["details"].(map[string]interface{})
	assert.EqualValues(t, 3, details["available"])
	assert.EqualValues(t, 5, details["requested"])

	assert.Equal(t, 10, reloadFlower(t, db, roses.ID).InStock)
	assert.Equal(t, 3, reloadFlower(t, db, tulips.ID).InStock)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestCreateOrder_UnavailableFlower(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	flower := models.Flower{Name: "Orchid", Price: 300, InStock: 5, IsAvailable: false}
	require.NoError(t, db.Create(&flower).Error)

	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
		OrderItemInput{FlowerID: flower.ID, Quantity: 1},
	))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeMap(t, w)["message"], "unavailable")
	assert.Equal(t, 5, reloadFlower(t, db, flower.ID).InStock)
}

func TestCreateOrder_UnknownCustomerAndFlower(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)

	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(9999,
		OrderItemInput{FlowerID: 1, Quantity: 1},
	))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
		OrderItemInput{FlowerID: 4242, Quantity: 1},
	))
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeMap(t, w)
	assert.Contains(t, resp["message"], "4242")
}

func TestCreateOrder_QuantityBounds(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	flower := seedFlower(t, db, "Rose", 150, 10)

	for _, quantity := range []int{0, -1, 1001} {
		w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
			OrderItemInput{FlowerID: flower.ID, Quantity: quantity},
		))
		assert.Equal(t, http.StatusBadRequest, w.Code, "quantity %d", quantity)
	}
	assert.Equal(t, 10, reloadFlower(t, db, flower.ID).InStock)
}

func TestCreateOrder_MissingItems(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)

	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID))
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeMap(t, w)
	details := resp["details"].(map[string]interface{})
	assert.NotEmpty(t, details["violations"])
}

func TestGetOrder_ExpandedRepresentation(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	flower := seedFlower(t, db, "Lily", 120, 10)

	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
		OrderItemInput{FlowerID: flower.ID, Quantity: 4},
	))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeMap(t, w)
	orderID := int(created["id"].(float64))

	w = doRequest(r, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeMap(t, w)
	items := resp["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "Lily", item["flower_name"])
	assert.InDelta(t, 480.0, item["subtotal"], 0.001)
}

func TestGetOrder_NotFound(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	w := doRequest(r, http.MethodGet, "/api/orders/777", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrder_Metadata(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	flower := seedFlower(t, db, "Rose", 150, 10)

	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
		OrderItemInput{FlowerID: flower.ID, Quantity: 1},
	))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := int(decodeMap(t, w)["id"].(float64))

	w = doRequest(r, http.MethodPut, fmt.Sprintf("/api/orders/%d", orderID), gin.H{
		"delivery_address": "99 Daisy Road",
		"notes":            "leave at the door",
		"delivery_date":    "2026-09-01",
		"delivery_time":    "14:30",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeMap(t, w)
	assert.Equal(t, "99 Daisy Road", resp["delivery_address"])
	assert.Equal(t, "leave at the door", resp["notes"])
	assert.Equal(t, "2026-09-01", resp["delivery_date"])
	assert.Equal(t, "14:30", resp["delivery_time"])
	assert.Equal(t, "new", resp["status"])

	w = doRequest(r, http.MethodPut, "/api/orders/777", gin.H{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderStatus_Transitions(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	flower := seedFlower(t, db, "Rose", 150, 10)

	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
		OrderItemInput{FlowerID: flower.ID, Quantity: 1},
	))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := int(decodeMap(t, w)["id"].(float64))
	statusPath := fmt.Sprintf("/api/orders/%d/status", orderID)

	w = doRequest(r, http.MethodPatch, statusPath, gin.H{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "processing", decodeMap(t, w)["status"])

	w = doRequest(r, http.MethodPatch, statusPath, gin.H{"status": "delivered"})
	require.Equal(t, http.StatusOK, w.Code)

	// Terminal state: no way back.
	w = doRequest(r, http.MethodPatch, statusPath, gin.H{"status": "processing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Outside the closed enum entirely.
	w = doRequest(r, http.MethodPatch, statusPath, gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrderStatus_CancelRestocks(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	flower := seedFlower(t, db, "Rose", 150, 5)

	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
		OrderItemInput{FlowerID: flower.ID, Quantity: 5},
	))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := int(decodeMap(t, w)["id"].(float64))
	require.Equal(t, 0, reloadFlower(t, db, flower.ID).InStock)

	w = doRequest(r, http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", orderID),
		gin.H{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code)

	restocked := reloadFlower(t, db, flower.ID)
	assert.Equal(t, 5, restocked.InStock)
	assert.True(t, restocked.IsAvailable)

	// Deleting the cancelled order must not restock a second time.
	w = doRequest(r, http.MethodDelete, fmt.Sprintf("/api/orders/%d", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, reloadFlower(t, db, flower.ID).InStock)
}

func TestDeleteOrder_RestoresStockAndAvailability(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	flower := seedFlower(t, db, "Rose", 150, 3)

	w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(customer.ID,
		OrderItemInput{FlowerID: flower.ID, Quantity: 3},
	))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := int(decodeMap(t, w)["id"].(float64))

	drained := reloadFlower(t, db, flower.ID)
	require.Equal(t, 0, drained.InStock)
	require.False(t, drained.IsAvailable)

	w = doRequest(r, http.MethodDelete, fmt.Sprintf("/api/orders/%d", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	restored := reloadFlower(t, db, flower.ID)
	assert.Equal(t, 3, restored.InStock)
	assert.True(t, restored.IsAvailable)

	// Items cascade with the order.
	var itemCount int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	w = doRequest(r, http.MethodDelete, fmt.Sprintf("/api/orders/%d", orderID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrders_FilterAndSort(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	customer := seedCustomer(t, db)
	other := models.Customer{Name: "Vera", Phone: "+7-900-000-0003"}
	require.NoError(t, db.Create(&other).Error)
	flower := seedFlower(t, db, "Rose", 100, 100)

	quantities := []int{3, 1, 2}
	owners := []uint{customer.ID, other.ID, customer.ID}
	ids := make([]int, 0, 3)
	for i, q := range quantities {
		w := doRequest(r, http.MethodPost, "/api/orders", orderRequest(owners[i],
			OrderItemInput{FlowerID: flower.ID, Quantity: q},
		))
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, int(decodeMap(t, w)["id"].(float64)))
	}

	// Spread order dates for the range filter.
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range ids {
		require.NoError(t, db.Model(&models.Order{}).Where("id = ?", id).
			Update("order_date", base.AddDate(0, 0, i)).Error)
	}
	// Move one order along the state machine for the status filter.
	w := doRequest(r, http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", ids[1]),
		gin.H{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code)

	// Ascending by amount.
	w = doRequest(r, http.MethodGet, "/api/orders?sortBy=amount&descending=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeList(t, w)
	require.Len(t, list, 3)
	previous := -1.0
	for _, o := range list {
		amount := o["total_amount"].(float64)
		assert.GreaterOrEqual(t, amount, previous)
		previous = amount
	}

	// Default sort: date descending.
	w = doRequest(r, http.MethodGet, "/api/orders", nil)
	list = decodeList(t, w)
	require.Len(t, list, 3)
	assert.EqualValues(t, ids[2], list[0]["id"])

	// Exact status match.
	w = doRequest(r, http.MethodGet, "/api/orders?status=processing", nil)
	list = decodeList(t, w)
	require.Len(t, list, 1)
	assert.EqualValues(t, ids[1], list[0]["id"])

	// By customer.
	w = doRequest(r, http.MethodGet, fmt.Sprintf("/api/orders?customerId=%d", other.ID), nil)
	list = decodeList(t, w)
	require.Len(t, list, 1)

	// Inclusive date range keeps the middle two days.
	w = doRequest(r, http.MethodGet,
		"/api/orders?startDate=2026-08-02&endDate=2026-08-03T23:59:59Z", nil)
	list = decodeList(t, w)
	assert.Len(t, list, 2)
}
