package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/utils"
)

const MaxAge = 86400 * 30

type AuthService interface {
	HandleLogin(ctx context.Context, u goth.User) (*models.LoginResponse, error)
}

type authService struct {
	userRepo repositories.UserRepository
	tokens   TokenConfig
}

func NewAuthService(userRepo repositories.UserRepository, tokens TokenConfig) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens}
}

// InitializeGoth registers the social login providers. It must run once
// before the router serves requests.
func InitializeGoth(cfg *config.Config) {
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.MaxAge(MaxAge)

	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = strings.HasPrefix(cfg.PublicURL, "https://")
	store.Options.SameSite = http.SameSiteLaxMode

	gothic.Store = store

	goth.UseProviders(
		google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.PublicURL+"/api/auth/google/callback"),
		facebook.New(cfg.FacebookClientID, cfg.FacebookClientSecret, cfg.PublicURL+"/api/auth/facebook/callback"),
	)
	log.Info().Msg("Goth providers initialized")
}

// HandleLogin signs in the account behind a provider identity, creating a
// customer account on first sight.
func (a *authService) HandleLogin(ctx context.Context, u goth.User) (*models.LoginResponse, error) {
	email := normalizeEmail(u.Email)
	if email == "" {
		log.Error().Str("provider", u.Provider).Msg("Missing email in Goth user data")
		return nil, fmt.Errorf("%w: provider returned no email", ErrInvalidInput)
	}

	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Error finding user by email")
		return nil, err
	}

	if user == nil {
		// Social accounts get an unguessable password; they can set a real
		// one through the reset flow.
		secret, err := utils.GenerateSecureOTP(32)
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), a.tokens.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user = &models.User{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     email,
			Password:  string(hash),
			Role:      models.RoleUser,
		}
		if user.FirstName == "" {
			user.FirstName = u.NickName
		}
		if _, err := a.userRepo.Create(ctx, user); err != nil {
			log.Error().Err(err).Str("email", email).Msg("Error creating new user")
			return nil, err
		}
		log.Info().Str("userID", user.ID.Hex()).Str("provider", u.Provider).Msg("New user created from social login")
	}

	if user.IsBlocked {
		return nil, ErrAccountBlocked
	}

	token, err := utils.GenerateJWT(a.tokens.Secret, user.ID, user.Role, a.tokens.TTL)
	if err != nil {
		log.Error().Err(err).Str("userID", user.ID.Hex()).Msg("Error generating JWT for user")
		return nil, fmt.Errorf("could not generate token: %w", err)
	}
	user.Password = ""
	return &models.LoginResponse{Token: token, User: user}, nil
}
