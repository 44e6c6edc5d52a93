package handler

import (
	"net/http"
	"time"

	"github.com/trukapp/truka/internal/context"
	"github.com/trukapp/truka/internal/errHandler"
	"github.com/trukapp/truka/internal/models"
	"github.com/trukapp/truka/internal/repository"
	"github.com/trukapp/truka/internal/response"
)

type NotificationHandler struct {
	NotificationRepo repository.NotificationRepository
	ErrHandler       *errHandler.ErrorHandler
}

func NewNotificationHandler(handler *NotificationHandler) *NotificationHandler {
	return &NotificationHandler{
		NotificationRepo: handler.NotificationRepo,
		ErrHandler:       handler.ErrHandler,
	}
}

type NotificationResponseData struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func newNotificationResponseData(n *models.Notification) NotificationResponseData {
	return NotificationResponseData{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		OrderID:   n.OrderID.String,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func (h *NotificationHandler) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	notifications, err := h.NotificationRepo.AllByUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]NotificationResponseData, len(notifications))
	for i := range notifications {
		data[i] = newNotificationResponseData(&notifications[i])
	}

	message := "Notifications retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *NotificationHandler) HandleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	notificationID := r.PathValue("id")

	found, err := h.NotificationRepo.MarkRead(notificationID, user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, "Notification not found", http.StatusNotFound, nil)
		return
	}

	message := "Notification marked as read"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
