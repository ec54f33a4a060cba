package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/utils"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (u *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload models.RegisterPayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}

	user, err := u.userService.RegisterUser(r.Context(), &payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, user)
}

func (u *UserHandler) login(w http.ResponseWriter, r *http.Request, adminOnly bool) {
	var creds models.Login
	if !utils.DecodeAndValidate(w, r, &creds) {
		return
	}

	resp, err := u.userService.LoginUser(r.Context(), &creds, adminOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (u *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	u.login(w, r, false)
}

func (u *UserHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	u.login(w, r, true)
}

func (u *UserHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	user, err := u.userService.GetUserProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (u *UserHandler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var payload models.UserProfileUpdate
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}

	user, err := u.userService.UpdateUserProfile(r.Context(), userID, &payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (u *UserHandler) DeleteMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	if err := u.userService.DeleteUser(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (u *UserHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	products, err := u.userService.GetWishlist(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, products)
}

func (u *UserHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	productID, err := utils.GetObjectIDFromVars(w, r, "productId")
	if err != nil {
		return
	}

	added, err := u.userService.ToggleWishlist(r.Context(), userID, productID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"in_wishlist": added})
}

func (u *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.ParsePagination(r, 20, 100)
	users, err := u.userService.ListUsers(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

func (u *UserHandler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	userID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := u.userService.SetBlocked(r.Context(), userID, blocked); err != nil {
		writeServiceError(w, r, err)
		return
	}
	log.Info().Str("user_id", userID.Hex()).Bool("blocked", blocked).Msg("Admin changed user block status")
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"is_blocked": blocked})
}

func (u *UserHandler) BlockUser(w http.ResponseWriter, r *http.Request) {
	u.setBlocked(w, r, true)
}

func (u *UserHandler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	u.setBlocked(w, r, false)
}
