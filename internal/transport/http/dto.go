package httptransport

import (
	"time"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
	"github.com/vladislavdragonenkov/food-oms/internal/service/saga"
)

type createOrderRequest struct {
	RestaurantID string             `json:"restaurant_id"`
	Items        []orderItemPayload `json:"items"`
}

type orderItemPayload struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Qty        int32  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID           string             `json:"id"`
	CustomerID   string             `json:"customer_id"`
	RestaurantID string             `json:"restaurant_id"`
	Status       string             `json:"status"`
	Items        []orderItemPayload `json:"items"`
	TotalMinor   int64              `json:"total_minor"`
	PaymentID    string             `json:"payment_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type errorPayload struct {
	Kind            string `json:"kind"`
	Message         string `json:"message"`
	ExistingOrderID string `json:"existing_order_id,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func toCreateRequest(req createOrderRequest, idempotencyKey string) saga.CreateOrderRequest {
	items := make([]saga.CreateOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, saga.CreateOrderItem{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
		})
	}
	return saga.CreateOrderRequest{
		RestaurantID:   req.RestaurantID,
		Items:          items,
		IdempotencyKey: idempotencyKey,
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
		})
	}
	return orderResponse{
		ID:           order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		Status:       string(order.Status),
		Items:        items,
		TotalMinor:   order.TotalMinor(),
		PaymentID:    order.PaymentID,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

func toOrderListResponse(orders []domain.Order, page domain.Page) orderListResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	return orderListResponse{Orders: out, Limit: page.Limit, Offset: page.Offset}
}
