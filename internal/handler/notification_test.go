package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trukapp/truka/internal/models"
)

type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Insert(notification *models.Notification, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockNotificationRepo) AllByUser(userID string) ([]models.Notification, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationRepo) MarkRead(id, userID string) (bool, error) {
	args := m.Called(id, userID)
	return args.Bool(0), args.Error(1)
}

func TestHandleListNotifications(t *testing.T) {
	mockNotificationRepo := new(MockNotificationRepo)
	_, errorHandler, _ := newTestDeps()

	mockNotificationRepo.On("AllByUser", "user-1").Return([]models.Notification{
		{ID: "n-1", Title: "Order Update", Message: "Your Maize shipment is now Accepted."},
	}, nil)

	notificationHandler := &NotificationHandler{
		NotificationRepo: mockNotificationRepo,
		ErrHandler:       errorHandler,
	}

	req := authenticatedRequest("GET", "/notifications", nil, &models.User{ID: "user-1"})
	rr := httptest.NewRecorder()

	notificationHandler.HandleListNotifications(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Your Maize shipment is now Accepted.")

	mockNotificationRepo.AssertExpectations(t)
}

func TestHandleMarkNotificationRead_UnknownNotification(t *testing.T) {
	mockNotificationRepo := new(MockNotificationRepo)
	_, errorHandler, _ := newTestDeps()

	mockNotificationRepo.On("MarkRead", "missing", "user-1").Return(false, nil)

	notificationHandler := &NotificationHandler{
		NotificationRepo: mockNotificationRepo,
		ErrHandler:       errorHandler,
	}

	req := authenticatedRequest("PATCH", "/notifications/missing/read", nil, &models.User{ID: "user-1"})
	req.SetPathValue("id", "missing")
	rr := httptest.NewRecorder()

	notificationHandler.HandleMarkNotificationRead(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "Notification not found")

	mockNotificationRepo.AssertExpectations(t)
}
