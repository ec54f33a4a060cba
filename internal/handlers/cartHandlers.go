package handlers

import (
	"net/http"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/utils"
)

type CartHandler struct {
	cartService services.CartService
}

func NewCartHandler(cartService services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) SaveCart(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	var payload models.CartPayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}
	cart, err := h.cartService.SaveCart(r.Context(), userID, &payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	cart, err := h.cartService.GetCart(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) EmptyCart(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	if err := h.cartService.EmptyCart(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	var payload models.ApplyCouponPayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}
	cart, err := h.cartService.ApplyCoupon(r.Context(), userID, payload.Coupon)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cart)
}
