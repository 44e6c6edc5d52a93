package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trukapp/truka/internal/cache"
	"github.com/trukapp/truka/internal/context"
	"github.com/trukapp/truka/internal/errHandler"
	"github.com/trukapp/truka/internal/file"
	"github.com/trukapp/truka/internal/helper"
	"github.com/trukapp/truka/internal/models"
	"github.com/trukapp/truka/internal/repository"
	"github.com/trukapp/truka/internal/request"
	"github.com/trukapp/truka/internal/response"
	"github.com/trukapp/truka/internal/stream"
	"github.com/trukapp/truka/internal/validator"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderUpdateConflict = errors.New("order was updated by another request, please retry")
)

const (
	OrderActivityLogStatusChangeDescription = "Order status updated"

	// OrderStatusChangedTopic carries shipper alerts for the push worker
	OrderStatusChangedTopic = "orders.status.changed"

	orderDetailCacheTTL = 30 * time.Second
)

type OrderHandler struct {
	OrderRepo    repository.OrderRepository
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityRepository
	Cache        *cache.Cache
	Kafka        *stream.KafkaStream
	FileUploader *file.FileUploader
	Helper       *helper.HelperRepository
	ErrHandler   *errHandler.ErrorHandler

	// Policy decides which lifecycle moves are accepted. The strict
	// transition table is the default for every live surface.
	Policy models.TransitionPolicy
}

func NewOrderHandler(handler *OrderHandler) *OrderHandler {
	return &OrderHandler{
		OrderRepo:    handler.OrderRepo,
		UserRepo:     handler.UserRepo,
		ActivityRepo: handler.ActivityRepo,
		Cache:        handler.Cache,
		Kafka:        handler.Kafka,
		FileUploader: handler.FileUploader,
		Helper:       handler.Helper,
		ErrHandler:   handler.ErrHandler,
		Policy:       handler.Policy,
	}
}

type OrderItemResponseData struct {
	ID          string          `json:"id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type OrderListItemData struct {
	ID                 string          `json:"id"`
	Status             string          `json:"status"`
	PickupAddress      string          `json:"pickup_address"`
	DestinationAddress string          `json:"destination_address"`
	ProduceType        string          `json:"produce_type,omitempty"`
	TotalPayable       decimal.Decimal `json:"total_payable"`
	MarketplaceSummary string          `json:"marketplace_summary"`
	CreatedAt          time.Time       `json:"created_at"`
}

type UserSummaryData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

type OrderDetailData struct {
	ID                 string                  `json:"id"`
	Status             string                  `json:"status"`
	PickupAddress      string                  `json:"pickup_address"`
	DestinationAddress string                  `json:"destination_address"`
	ProduceType        string                  `json:"produce_type,omitempty"`
	Weight             string                  `json:"weight,omitempty"`
	CargoPhoto         string                  `json:"cargo_photo,omitempty"`
	EstimatedCost      decimal.Decimal         `json:"estimated_cost"`
	TotalPayable       decimal.Decimal         `json:"total_payable"`
	MarketplaceSummary string                  `json:"marketplace_summary"`
	Details            map[string]any          `json:"details"`
	Items              []OrderItemResponseData `json:"items"`
	Shipper            *UserSummaryData        `json:"shipper,omitempty"`
	Driver             *UserSummaryData        `json:"driver,omitempty"`
	AcceptedAt         *time.Time              `json:"accepted_at"`
	InTransitAt        *time.Time              `json:"in_transit_at"`
	ClearedAt          *time.Time              `json:"cleared_at"`
	DeliveredAt        *time.Time              `json:"delivered_at"`
	CancelledAt        *time.Time              `json:"cancelled_at"`
	CreatedAt          time.Time               `json:"created_at"`
}

// OrderStatusEvent is the payload produced for the push worker when an
// order moves to a new status.
type OrderStatusEvent struct {
	OrderID     string `json:"order_id"`
	ShipperID   string `json:"shipper_id"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	Pickup      string `json:"pickup"`
	Destination string `json:"destination"`
}

func newOrderListItemData(order *models.Order) OrderListItemData {
	return OrderListItemData{
		ID:                 order.ID,
		Status:             string(order.Status),
		PickupAddress:      order.PickupAddress,
		DestinationAddress: order.DestinationAddress,
		ProduceType:        order.ProduceType.String,
		TotalPayable:       order.TotalPayable(),
		MarketplaceSummary: order.MarketplaceSummary(),
		CreatedAt:          order.CreatedAt,
	}
}

func (h *OrderHandler) orderDetailData(order *models.Order) (*OrderDetailData, error) {
	items := make([]OrderItemResponseData, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponseData{
			ID:          item.ID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		}
	}

	data := &OrderDetailData{
		ID:                 order.ID,
		Status:             string(order.Status),
		PickupAddress:      order.PickupAddress,
		DestinationAddress: order.DestinationAddress,
		ProduceType:        order.ProduceType.String,
		Weight:             order.Weight.String,
		CargoPhoto:         order.CargoPhoto.String,
		EstimatedCost:      order.EstimatedCost,
		TotalPayable:       order.TotalPayable(),
		MarketplaceSummary: order.MarketplaceSummary(),
		Details:            order.DetailsMap(),
		Items:              items,
		CreatedAt:          order.CreatedAt,
	}

	if order.AcceptedAt.Valid {
		data.AcceptedAt = &order.AcceptedAt.Time
	}
	if order.InTransitAt.Valid {
		data.InTransitAt = &order.InTransitAt.Time
	}
	if order.ClearedAt.Valid {
		data.ClearedAt = &order.ClearedAt.Time
	}
	if order.DeliveredAt.Valid {
		data.DeliveredAt = &order.DeliveredAt.Time
	}
	if order.CancelledAt.Valid {
		data.CancelledAt = &order.CancelledAt.Time
	}

	if order.ShipperID.Valid {
		shipper, found, err := h.UserRepo.GetOne(order.ShipperID.String)
		if err != nil {
			return nil, err
		}
		if found {
			data.Shipper = &UserSummaryData{ID: shipper.ID, Name: shipper.FullName(), PhoneNumber: shipper.PhoneNumber}
		}
	}

	if order.DriverID.Valid {
		driver, found, err := h.UserRepo.GetOne(order.DriverID.String)
		if err != nil {
			return nil, err
		}
		if found {
			data.Driver = &UserSummaryData{ID: driver.ID, Name: driver.FullName(), PhoneNumber: driver.PhoneNumber}
		}
	}

	return data, nil
}

func (h *OrderHandler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveListQueryValues(r)

	orders, err := h.OrderRepo.GetActive(queryValues.Size, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	total, err := h.OrderRepo.CountActive()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]OrderListItemData, len(orders))
	for i := range orders {
		data[i] = newOrderListItemData(&orders[i])
	}

	message := "Orders retrieved successfully"

	payload := map[string]any{
		"orders": data,
		"total":  total,
		"page":   queryValues.Page,
		"size":   queryValues.Size,
	}

	err = response.JSONOkResponse(w, payload, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func orderDetailCacheKey(orderID string) string {
	return "order:detail:" + orderID
}

func (h *OrderHandler) HandleOrderDetail(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	// serve from cache when we can; a miss or a stale read just falls
	// through to the database
	if cached, err := h.Cache.Get(orderDetailCacheKey(orderID)); err == nil && cached != "" {
		var data map[string]any
		if err := json.Unmarshal([]byte(cached), &data); err == nil {
			message := "Order details retrieved successfully"
			if err := response.JSONOkResponse(w, data, message, nil); err != nil {
				h.ErrHandler.ServerError(w, r, err)
			}
			return
		}
	}

	order, found, err := h.OrderRepo.GetOne(orderID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrOrderNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	data, err := h.orderDetailData(order)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		serialized, err := json.Marshal(data)
		if err != nil {
			return err
		}

		err = h.Cache.Set(orderDetailCacheKey(order.ID), string(serialized), orderDetailCacheTTL)
		if err != nil {
			log.Printf("Error caching order detail: %v", err)
			return err
		}

		return nil
	})

	message := "Order details retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *OrderHandler) HandleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status    string              `json:"status"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	newStatus, ok := models.ParseOrderStatus(input.Status)
	if !ok {
		input.Validator.AddError(fmt.Sprintf("%q is not a recognised order status", input.Status))
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	orderID := r.PathValue("id")

	order, found, err := h.OrderRepo.GetOne(orderID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrOrderNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	if !h.Policy.Allows(order.Status, newStatus) {
		input.Validator.AddError(fmt.Sprintf("Order cannot move from %s to %s", order.Status.Human(), newStatus.Human()))
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	// a notification is only due when the status actually changes and
	// the order has a shipper to tell
	var notification *models.Notification
	if order.Status != newStatus && order.ShipperID.Valid {
		notification = models.NewOrderStatusNotification(order, newStatus)
	}

	applied, err := h.OrderRepo.ApplyTransition(order.ID, order.Status, newStatus, notification)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !applied {
		h.ErrHandler.Conflict(w, r, ErrOrderUpdateConflict.Error())
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		err := h.Cache.Delete(orderDetailCacheKey(order.ID))
		if err != nil {
			log.Printf("Error invalidating order detail cache: %v", err)
		}
		return nil
	})

	if notification != nil {
		event := &OrderStatusEvent{
			OrderID:     order.ID,
			ShipperID:   order.ShipperID.String,
			Status:      newStatus.Human(),
			Message:     notification.Message,
			Pickup:      order.PickupAddress,
			Destination: order.DestinationAddress,
		}

		jsonEvent, err := json.Marshal(event)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		// Produce message so that the push worker can alert the shipper
		go h.Kafka.ProduceMessage(OrderStatusChangedTopic, string(jsonEvent))
	}

	admin := context.ContextGetAuthenticatedUser(r)

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      admin.ID,
			Entity:      models.ActivityLogOrderEntity,
			EntityId:    order.ID,
			Description: OrderActivityLogStatusChangeDescription,
		})

		if err != nil {
			log.Printf("Error logging order status action: %v", err)
			return err
		}

		return nil
	})

	message := "Order status updated successfully"

	data := map[string]any{
		"status": string(newStatus),
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleUploadCargoPhoto attaches a cargo photo to an order. The image
// lands on Cloudinary and only the URL is stored.
func (h *OrderHandler) HandleUploadCargoPhoto(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	_, found, err := h.OrderRepo.GetOne(orderID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrOrderNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	err = r.ParseMultipartForm(10 << 20) // 10 MB
	if err != nil {
		h.ErrHandler.BadRequest(w, r, errors.New("invalid request data"))
		return
	}

	upload, header, err := r.FormFile("file")
	if err != nil {
		h.ErrHandler.BadRequest(w, r, errors.New("error retrieving the file"))
		return
	}
	defer upload.Close()

	fileExtension := filepath.Ext(header.Filename)

	tempFile, err := os.CreateTemp("", fmt.Sprintf("upload-*%s", fileExtension))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	defer tempFile.Close()
	defer os.Remove(tempFile.Name())

	_, err = tempFile.ReadFrom(upload)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	photoURL, err := h.FileUploader.UploadFile(tempFile.Name())
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.OrderRepo.SetCargoPhoto(orderID, photoURL)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		err := h.Cache.Delete(orderDetailCacheKey(orderID))
		if err != nil {
			log.Printf("Error invalidating order detail cache: %v", err)
		}
		return nil
	})

	message := "Cargo photo uploaded successfully"

	data := map[string]any{
		"cargo_photo": photoURL,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
