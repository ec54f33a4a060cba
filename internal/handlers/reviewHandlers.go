package handlers

import (
	"net/http"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/utils"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	reviews, err := h.reviewService.ListReviews(r.Context(), productID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) WriteReview(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	productID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	var payload models.ReviewPayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}

	review, err := h.reviewService.WriteReview(r.Context(), userID, productID, &payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	reviewID, err := utils.GetObjectIDFromVars(w, r, "reviewId")
	if err != nil {
		return
	}
	if err := h.reviewService.DeleteReview(r.Context(), userID, utils.RoleFromContext(r.Context()), reviewID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
