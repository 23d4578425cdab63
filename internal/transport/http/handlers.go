package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

const (
	headerCustomerID     = "X-Customer-Id"
	headerIdempotencyKey = "Idempotency-Key"

	defaultPageLimit = 20
	maxPageLimit     = 100
)

// createOrder — POST /api/orders. Идентификатор клиента приходит в заголовке
// (его проставляет вышестоящий шлюз), ключ идемпотентности — опционально.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	customerID := strings.TrimSpace(r.Header.Get(headerCustomerID))
	if customerID == "" {
		writeBadRequest(w, "missing "+headerCustomerID+" header")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	order, err := s.saga.CreateOrder(r.Context(), toCreateRequest(req, r.Header.Get(headerIdempotencyKey)), customerID)
	if err != nil {
		s.logError(r, "create order failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// getOrder — GET /api/orders/{orderID}. Заказ видят его клиент и владелец ресторана.
func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get(headerCustomerID))
	if userID == "" {
		writeBadRequest(w, "missing "+headerCustomerID+" header")
		return
	}

	order, err := s.saga.GetOrderForUser(r.Context(), chi.URLParam(r, "orderID"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// cancelOrder — POST /api/orders/{orderID}/cancel. Неудача возврата не
// откатывает отмену: клиент получает 502 вместе с уже отменённым заказом.
func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	customerID := strings.TrimSpace(r.Header.Get(headerCustomerID))
	if customerID == "" {
		writeBadRequest(w, "missing "+headerCustomerID+" header")
		return
	}

	order, err := s.saga.CancelOrder(r.Context(), chi.URLParam(r, "orderID"), customerID)
	if err != nil {
		s.logError(r, "cancel order failed", err)
		if errors.Is(err, domain.ErrRefundFailed) {
			status, payload := mapError(err)
			writeJSON(w, status, struct {
				Error errorPayload  `json:"error"`
				Order orderResponse `json:"order"`
			}{Error: payload, Order: toOrderResponse(order)})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// updateOrderStatus — PATCH /api/orders/{orderID}/status. Вход для внешних
// процессов (расчёт платежа), переходы валидирует машина состояний.
func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	next := domain.OrderStatus(req.Status)
	if !next.Valid() {
		writeBadRequest(w, "unknown order status: "+req.Status)
		return
	}

	order, err := s.saga.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), next)
	if err != nil {
		s.logError(r, "update order status failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// listCustomerOrders — GET /api/customers/{customerID}/orders?limit=&offset=
func (s *Server) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	orders, err := s.saga.ListByCustomer(chi.URLParam(r, "customerID"), page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderListResponse(orders, page))
}

// listRestaurantOrders — GET /api/restaurants/{restaurantID}/orders?limit=&offset=
func (s *Server) listRestaurantOrders(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	orders, err := s.saga.ListByRestaurant(chi.URLParam(r, "restaurantID"), page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderListResponse(orders, page))
}

func parsePage(r *http.Request) (domain.Page, error) {
	page := domain.Page{Limit: defaultPageLimit}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return domain.Page{}, errors.New("limit must be a positive integer")
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
		page.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return domain.Page{}, errors.New("offset must be a non-negative integer")
		}
		page.Offset = offset
	}

	return page, nil
}

func (s *Server) logError(r *http.Request, message string, err error) {
	s.logger.WithError(err).WithField("path", r.URL.Path).Warn(message)
}
