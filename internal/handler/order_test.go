package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trukapp/truka/internal/cache"
	"github.com/trukapp/truka/internal/models"
	"github.com/trukapp/truka/internal/stream"
)

// MockOrderRepo implements OrderRepository but only mocks the needed methods.
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Insert(order *models.Order, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockOrderRepo) InsertItem(item *models.OrderItem, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockOrderRepo) GetOne(id string) (*models.Order, bool, error) {
	args := m.Called(id)

	var order *models.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*models.Order)
	}

	return order, args.Bool(1), args.Error(2)
}

func (m *MockOrderRepo) GetActive(limit, offset int) ([]models.Order, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepo) CountActive() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *MockOrderRepo) ApplyTransition(orderID string, from, to models.OrderStatus, notification *models.Notification) (bool, error) {
	args := m.Called(orderID, from, to, notification)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepo) SetCargoPhoto(orderID, photoURL string) error {
	return nil
}

func requireDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func newTestOrderHandler(orderRepo *MockOrderRepo, activityRepo *MockActivityRepo) (*OrderHandler, func()) {
	help, errorHandler, wg := newTestDeps()

	handler := &OrderHandler{
		OrderRepo:    orderRepo,
		ActivityRepo: activityRepo,
		Cache:        cache.New("localhost:6379", 0),
		Kafka:        stream.New("localhost:9092"),
		Helper:       help,
		ErrHandler:   errorHandler,
		Policy:       models.TransitionPolicyStrict,
	}

	return handler, wg.Wait
}

func statusUpdateRequest(t *testing.T, orderID, status string) *http.Request {
	t.Helper()

	requestBody, err := json.Marshal(map[string]string{"status": status})
	require.NoError(t, err)

	req := authenticatedRequest("PATCH", "/orders/"+orderID+"/status", requestBody, &models.User{ID: "admin-1", Role: models.UserRoleAdmin})
	req.SetPathValue("id", orderID)
	return req
}

func TestHandleUpdateOrderStatus_RejectsUnknownStatusName(t *testing.T) {
	orderHandler, _ := newTestOrderHandler(new(MockOrderRepo), new(MockActivityRepo))

	req := statusUpdateRequest(t, "order-1", "teleported")
	rr := httptest.NewRecorder()

	orderHandler.HandleUpdateOrderStatus(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "not a recognised order status")
}

func TestHandleUpdateOrderStatus_UnknownOrder(t *testing.T) {
	mockOrderRepo := new(MockOrderRepo)
	mockOrderRepo.On("GetOne", "missing-order").Return(nil, false, nil)

	orderHandler, _ := newTestOrderHandler(mockOrderRepo, new(MockActivityRepo))

	req := statusUpdateRequest(t, "missing-order", "accepted")
	rr := httptest.NewRecorder()

	orderHandler.HandleUpdateOrderStatus(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "order not found")

	mockOrderRepo.AssertExpectations(t)
}

func TestHandleUpdateOrderStatus_RejectsDisallowedMove(t *testing.T) {
	mockOrderRepo := new(MockOrderRepo)
	mockOrderRepo.On("GetOne", "order-1").Return(&models.Order{
		ID:     "order-1",
		Status: models.OrderStatusDelivered,
	}, true, nil)

	orderHandler, _ := newTestOrderHandler(mockOrderRepo, new(MockActivityRepo))

	req := statusUpdateRequest(t, "order-1", "pending")
	rr := httptest.NewRecorder()

	orderHandler.HandleUpdateOrderStatus(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "cannot move from Delivered to Pending")

	mockOrderRepo.AssertExpectations(t)
}

func TestHandleUpdateOrderStatus_AppliesAllowedMove(t *testing.T) {
	mockOrderRepo := new(MockOrderRepo)
	mockActivityRepo := new(MockActivityRepo)

	order := &models.Order{
		ID:     "order-1",
		Status: models.OrderStatusPending,
	}

	mockOrderRepo.On("GetOne", "order-1").Return(order, true, nil)
	// no shipper on the order, so no notification accompanies the write
	mockOrderRepo.On("ApplyTransition", "order-1", models.OrderStatusPending, models.OrderStatusAccepted, (*models.Notification)(nil)).Return(true, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&models.ActivityLog{}, nil)

	orderHandler, wait := newTestOrderHandler(mockOrderRepo, mockActivityRepo)

	req := statusUpdateRequest(t, "order-1", "accepted")
	rr := httptest.NewRecorder()

	orderHandler.HandleUpdateOrderStatus(rr, req)
	wait()

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Order status updated successfully")
	require.Contains(t, rr.Body.String(), `"accepted"`)

	mockOrderRepo.AssertExpectations(t)
	mockActivityRepo.AssertExpectations(t)
}

func TestHandleUpdateOrderStatus_NotifiesAssignedShipper(t *testing.T) {
	mockOrderRepo := new(MockOrderRepo)
	mockActivityRepo := new(MockActivityRepo)

	order := &models.Order{
		ID:          "order-1",
		ShipperID:   sql.NullString{String: "shipper-9", Valid: true},
		ProduceType: sql.NullString{String: "Maize", Valid: true},
		Status:      models.OrderStatusPending,
	}

	mockOrderRepo.On("GetOne", "order-1").Return(order, true, nil)
	mockOrderRepo.On("ApplyTransition", "order-1", models.OrderStatusPending, models.OrderStatusAccepted, mock.MatchedBy(func(notification *models.Notification) bool {
		return notification != nil &&
			notification.UserID == "shipper-9" &&
			notification.Title == "Order Update" &&
			notification.Type == models.NotificationTypeOrderUpdate &&
			notification.Message == "Your Maize shipment is now Accepted."
	})).Return(true, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&models.ActivityLog{}, nil)

	orderHandler, wait := newTestOrderHandler(mockOrderRepo, mockActivityRepo)

	req := statusUpdateRequest(t, "order-1", "accepted")
	rr := httptest.NewRecorder()

	orderHandler.HandleUpdateOrderStatus(rr, req)
	wait()

	require.Equal(t, http.StatusOK, rr.Code)

	mockOrderRepo.AssertExpectations(t)
	mockActivityRepo.AssertExpectations(t)
}

func TestHandleUpdateOrderStatus_SameStatusIsIdempotent(t *testing.T) {
	mockOrderRepo := new(MockOrderRepo)
	mockActivityRepo := new(MockActivityRepo)

	order := &models.Order{
		ID:        "order-1",
		ShipperID: sql.NullString{String: "shipper-1", Valid: true},
		Status:    models.OrderStatusInTransit,
	}

	mockOrderRepo.On("GetOne", "order-1").Return(order, true, nil)
	// repeating the current status must not build a notification
	mockOrderRepo.On("ApplyTransition", "order-1", models.OrderStatusInTransit, models.OrderStatusInTransit, (*models.Notification)(nil)).Return(true, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&models.ActivityLog{}, nil)

	orderHandler, wait := newTestOrderHandler(mockOrderRepo, mockActivityRepo)

	req := statusUpdateRequest(t, "order-1", "in_transit")
	rr := httptest.NewRecorder()

	orderHandler.HandleUpdateOrderStatus(rr, req)
	wait()

	require.Equal(t, http.StatusOK, rr.Code)

	mockOrderRepo.AssertExpectations(t)
}

func TestHandleUpdateOrderStatus_ConcurrentUpdateConflicts(t *testing.T) {
	mockOrderRepo := new(MockOrderRepo)

	order := &models.Order{
		ID:     "order-1",
		Status: models.OrderStatusPending,
	}

	mockOrderRepo.On("GetOne", "order-1").Return(order, true, nil)
	mockOrderRepo.On("ApplyTransition", "order-1", models.OrderStatusPending, models.OrderStatusAccepted, (*models.Notification)(nil)).Return(false, nil)

	orderHandler, _ := newTestOrderHandler(mockOrderRepo, new(MockActivityRepo))

	req := statusUpdateRequest(t, "order-1", "accepted")
	rr := httptest.NewRecorder()

	orderHandler.HandleUpdateOrderStatus(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "updated by another request")

	mockOrderRepo.AssertExpectations(t)
}

func TestHandleListOrders_ReturnsDerivedFields(t *testing.T) {
	mockOrderRepo := new(MockOrderRepo)

	orders := []models.Order{
		{
			ID:                 "order-1",
			Status:             models.OrderStatusPending,
			PickupAddress:      "Mile 12 Market, Lagos",
			DestinationAddress: "Wuse Market, Abuja",
			Items: []models.OrderItem{
				{ProductName: "Maize", Quantity: 2, Price: requireDecimal(t, "5.00")},
				{ProductName: "Beans", Quantity: 1, Price: requireDecimal(t, "3.00")},
			},
		},
	}

	mockOrderRepo.On("GetActive", 10, 0).Return(orders, nil)
	mockOrderRepo.On("CountActive").Return(1, nil)

	orderHandler, _ := newTestOrderHandler(mockOrderRepo, new(MockActivityRepo))

	req := authenticatedRequest("GET", "/orders", nil, &models.User{ID: "admin-1", Role: models.UserRoleAdmin})
	rr := httptest.NewRecorder()

	orderHandler.HandleListOrders(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "2x Maize, 1x Beans")
	require.Contains(t, rr.Body.String(), `"13"`)

	mockOrderRepo.AssertExpectations(t)
}
