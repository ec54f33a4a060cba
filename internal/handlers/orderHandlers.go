package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/utils"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	var payload models.CreateOrderPayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}
	order, err := h.orderService.CreateOrder(r.Context(), userID, &payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	orders, err := h.orderService.ListMyOrders(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	id, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	order, err := h.orderService.GetOrder(r.Context(), userID, utils.RoleFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	order, err := h.orderService.TrackOrder(r.Context(), userID, utils.RoleFromContext(r.Context()), mux.Vars(r)["orderNumber"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"order_number":   order.OrderNumber,
		"status":         order.Status,
		"status_history": order.StatusHistory,
	})
}

// Invoice streams the order invoice as a PDF attachment.
func (h *OrderHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	id, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	order, pdf, err := h.orderService.Invoice(r.Context(), userID, utils.RoleFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "invoice-"+order.OrderNumber+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("Failed to write invoice")
	}
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.ParsePagination(r, 20, 100)
	orders, err := h.orderService.ListOrders(r.Context(), r.URL.Query().Get("status"), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	var payload models.UpdateOrderStatusPayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}
	order, err := h.orderService.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, order)
}
