package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/markbates/goth/gothic"
	"github.com/rs/zerolog/log"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/utils"
)

type AuthHandler struct {
	authService  services.AuthService
	resetService services.PasswordResetService
}

func NewAuthHandler(authService services.AuthService, resetService services.PasswordResetService) *AuthHandler {
	return &AuthHandler{authService: authService, resetService: resetService}
}

// RequestPasswordReset issues a reset code. The body of a 200 response is the
// same whether or not the email belongs to an account.
func (a *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var payload models.RequestResetPayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}

	resp, err := a.resetService.RequestReset(r.Context(), payload.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (a *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var payload models.VerifyOTPPayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}

	if err := a.resetService.VerifyOTP(r.Context(), payload.Email, payload.OTP, payload.Reference); err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Code verified. You can now set a new password."})
}

func (a *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload models.ResetPasswordPayload
	if !utils.DecodeAndValidate(w, r, &payload) {
		return
	}

	if err := a.resetService.ResetPassword(r.Context(), payload.Email, payload.NewPassword, payload.ConfirmPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset. Please log in."})
}

func (a *AuthHandler) ProviderAuth(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	if provider == "" {
		log.Error().Msg("Provider not specified in URL")
		utils.SendJSONError(w, "Provider not specified", http.StatusBadRequest)
		return
	}

	log.Info().Str("provider", provider).Msg("Initiating authentication with provider")
	gothic.BeginAuthHandler(w, r)
}

func (a *AuthHandler) ProviderCallback(w http.ResponseWriter, r *http.Request) {
	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		log.Error().Err(err).Msg("Error completing user authentication")
		http.Redirect(w, r, "/api/auth/error", http.StatusTemporaryRedirect)
		return
	}

	resp, err := a.authService.HandleLogin(r.Context(), gothUser)
	if err != nil {
		log.Error().Err(err).Str("provider", gothUser.Provider).Msg("Error handling login after provider authentication")
		http.Redirect(w, r, "/api/auth/error", http.StatusTemporaryRedirect)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    resp.Token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/api/auth/success", http.StatusTemporaryRedirect)
}

func (a *AuthHandler) AuthSuccess(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Authentication successful"})
}

func (a *AuthHandler) AuthError(w http.ResponseWriter, r *http.Request) {
	utils.SendJSONError(w, "Authentication failed. Please try again.", http.StatusBadRequest)
}
