package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bakery-admin-service/internal/domain"
)

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	orders, totalCount, err := h.orders.ListOrders(r.Context(), params)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve orders")
		return
	}
	respondWithData(w, http.StatusOK, paginate(orders, params, totalCount))
}

func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	order, err := h.orders.GetOrderByID(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve order")
		return
	}
	respondWithData(w, http.StatusOK, order)
}

// OrderStatusInput is the payload for PATCH /orders/{orderId}/status.
type OrderStatusInput struct {
	Status string `json:"status" validate:"required"`
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var input OrderStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if !domain.ValidOrderStatus(input.Status) {
		respondWithError(w, http.StatusBadRequest, "Invalid order status: "+input.Status)
		return
	}

	updated, err := h.orders.UpdateOrderStatus(r.Context(), orderID, input.Status)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update order status")
		return
	}
	respondWithData(w, http.StatusOK, updated)
}
