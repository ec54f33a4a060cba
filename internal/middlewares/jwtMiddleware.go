package middlewares

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"storefront/internal/models"
	"storefront/internal/utils"
)

// AuthMiddleware requires a valid bearer token and puts the user id and role
// into the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				log.Error().Msg("JWT_SECRET is not set; rejecting authenticated request")
				utils.SendJSONError(w, "Server configuration error", http.StatusInternalServerError)
				return
			}

			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				utils.SendJSONError(w, "Missing token", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(tokenString, "Bearer ") {
				utils.SendJSONError(w, "Invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ParseJWT(secret, strings.TrimPrefix(tokenString, "Bearer "))
			if err != nil {
				log.Debug().Err(err).Msg("Rejected bearer token")
				utils.SendJSONError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := utils.WithUser(r.Context(), claims.ID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if utils.RoleFromContext(r.Context()) != models.RoleAdmin {
			utils.SendJSONError(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
