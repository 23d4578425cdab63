package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vladislavdragonenkov/food-oms/internal/domain"
)

// mapError переводит доменную ошибку в HTTP-статус и машинно-читаемый kind.
func mapError(err error) (int, errorPayload) {
	var conflict *domain.IdempotencyConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict, errorPayload{
			Kind:            "idempotency_conflict",
			Message:         err.Error(),
			ExistingOrderID: conflict.ExistingOrderID,
		}
	}

	switch {
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, errorPayload{Kind: "idempotency_conflict", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return http.StatusConflict, errorPayload{Kind: "invalid_state_transition", Message: err.Error()}
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, errorPayload{Kind: "order_not_found", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorizedAccess):
		return http.StatusForbidden, errorPayload{Kind: "unauthorized", Message: err.Error()}
	case errors.Is(err, domain.ErrRestaurantUnavailable):
		return http.StatusServiceUnavailable, errorPayload{Kind: "restaurant_unavailable", Message: err.Error()}
	case errors.Is(err, domain.ErrRefundFailed):
		return http.StatusBadGateway, errorPayload{Kind: "refund_failed", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidOrderItems),
		errors.Is(err, domain.ErrCustomerRequired),
		errors.Is(err, domain.ErrRestaurantRequired):
		return http.StatusBadRequest, errorPayload{Kind: "invalid_request", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorPayload{Kind: "internal", Message: "internal server error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, errorResponse{Error: payload})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorPayload{
		Kind:    "invalid_request",
		Message: message,
	}})
}
