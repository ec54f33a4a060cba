package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/utils"
)

// UserService defines the interface for user-related business logic.
type UserService interface {
	RegisterUser(ctx context.Context, payload *models.RegisterPayload) (*models.User, error)
	LoginUser(ctx context.Context, creds *models.Login, adminOnly bool) (*models.LoginResponse, error)
	GetUserProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userID primitive.ObjectID, updatePayload *models.UserProfileUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, userID primitive.ObjectID) error
	GetTotalUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context, page, limit int64) ([]models.User, error)
	SetBlocked(ctx context.Context, userID primitive.ObjectID, blocked bool) error
	ToggleWishlist(ctx context.Context, userID, productID primitive.ObjectID) (bool, error)
	GetWishlist(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error)
	RunTotalUsersGauge(ctx context.Context, interval time.Duration)
}

type TokenConfig struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

// userService implements UserService using a UserRepository.
type userService struct {
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
	tokens      TokenConfig
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, productRepo repositories.ProductRepository, tokens TokenConfig) UserService {
	return &userService{userRepo: userRepo, productRepo: productRepo, tokens: tokens}
}

func (s *userService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.userRepo.CountAll(ctx)
}

// RunTotalUsersGauge refreshes the user gauge until ctx is cancelled.
func (s *userService) RunTotalUsersGauge(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.refreshTotalUsers(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *userService) refreshTotalUsers(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	count, err := s.GetTotalUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error updating total users gauge")
		return
	}
	metrics.TotalUsers.Set(float64(count))
}

func (s *userService) RegisterUser(ctx context.Context, payload *models.RegisterPayload) (*models.User, error) {
	email := normalizeEmail(payload.Email)
	log.Debug().Str("email", email).Msg("Attempting to register user")

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.tokens.BcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password during registration")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName: strings.TrimSpace(payload.FirstName),
		LastName:  strings.TrimSpace(payload.LastName),
		Email:     email,
		Mobile:    payload.Mobile,
		Password:  string(hashedPassword),
		Role:      models.RoleUser,
	}

	createdUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn().Str("email", email).Msg("Email already exists during user insertion")
			return nil, fmt.Errorf("%w: email already registered", ErrAlreadyExists)
		}
		return nil, err
	}

	createdUser.Password = "" // Clear password before returning
	metrics.NewUsersTotal.Inc()
	log.Info().Str("user_id", createdUser.ID.Hex()).Str("email", createdUser.Email).Msg("User registered successfully")
	return createdUser, nil
}

// LoginUser checks credentials and issues a JWT. With adminOnly set, a valid
// non-admin account is refused as if the credentials were wrong.
func (s *userService) LoginUser(ctx context.Context, creds *models.Login, adminOnly bool) (*models.LoginResponse, error) {
	email := normalizeEmail(creds.Email)
	log.Debug().Str("email", email).Msg("Attempting user login")

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Error finding user for login")
		return nil, err
	}
	if user == nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("email", email).Msg("Invalid credentials during login attempt")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("email", email).Msg("Invalid credentials (password mismatch) during login attempt")
		return nil, ErrInvalidCredentials
	}
	if adminOnly && user.Role != models.RoleAdmin {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("user_id", user.ID.Hex()).Msg("Non-admin attempted admin login")
		return nil, ErrInvalidCredentials
	}
	if user.IsBlocked {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("user_id", user.ID.Hex()).Msg("Blocked user attempted login")
		return nil, ErrAccountBlocked
	}

	token, err := utils.GenerateJWT(s.tokens.Secret, user.ID, user.Role, s.tokens.TTL)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Could not generate token for user")
		return nil, fmt.Errorf("could not generate token: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("User logged in successfully")
	user.Password = ""
	return &models.LoginResponse{Token: token, User: user}, nil
}

func (s *userService) GetUserProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Failed to fetch user profile")
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}

	user.Password = "" // Clear password before returning
	return user, nil
}

func (s *userService) UpdateUserProfile(ctx context.Context, userID primitive.ObjectID, updatePayload *models.UserProfileUpdate) (*models.User, error) {
	log.Debug().Str("userID", userID.Hex()).Msg("Attempting to update user profile")
	updateFields := bson.M{}
	if updatePayload.FirstName != nil {
		updateFields["first_name"] = strings.TrimSpace(*updatePayload.FirstName)
	}
	if updatePayload.LastName != nil {
		updateFields["last_name"] = strings.TrimSpace(*updatePayload.LastName)
	}
	if updatePayload.Mobile != nil {
		updateFields["mobile"] = *updatePayload.Mobile
	}
	if updatePayload.Address != nil {
		updateFields["address"] = *updatePayload.Address
	}
	if updatePayload.Email != nil {
		email := normalizeEmail(*updatePayload.Email)
		existingUser, err := s.userRepo.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email availability: %w", err)
		}
		if existingUser != nil && existingUser.ID != userID {
			log.Warn().Str("email", email).Msg("Email already in use by another account during profile update")
			return nil, fmt.Errorf("%w: email already in use by another account", ErrAlreadyExists)
		}
		updateFields["email"] = email
	}
	if updatePayload.Password != nil && *updatePayload.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*updatePayload.Password), s.tokens.BcryptCost)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Failed to hash new password for profile update")
			return nil, fmt.Errorf("failed to hash new password: %w", err)
		}
		updateFields["password"] = string(hashedPassword)
	}

	if len(updateFields) == 0 {
		return nil, fmt.Errorf("%w: no valid fields provided for update", ErrInvalidInput)
	}

	result, err := s.userRepo.Update(ctx, userID, updateFields)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: email already in use by another account", ErrAlreadyExists)
		}
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}

	log.Info().Str("user_id", userID.Hex()).Msg("User profile updated successfully")
	return s.GetUserProfile(ctx, userID)
}

func (s *userService) DeleteUser(ctx context.Context, userID primitive.ObjectID) error {
	result, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: user", ErrNotFound)
	}

	log.Info().Str("user_id", userID.Hex()).Msg("User account deleted successfully")
	s.refreshTotalUsers(ctx)
	return nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int64) ([]models.User, error) {
	return s.userRepo.FindAll(ctx, page, limit)
}

func (s *userService) SetBlocked(ctx context.Context, userID primitive.ObjectID, blocked bool) error {
	found, err := s.userRepo.SetBlocked(ctx, userID, blocked)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	log.Info().Str("user_id", userID.Hex()).Bool("blocked", blocked).Msg("User block status changed")
	return nil
}

// ToggleWishlist adds the product when absent and removes it otherwise. It
// reports whether the product is now on the list.
func (s *userService) ToggleWishlist(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return false, err
	}
	if product == nil {
		return false, fmt.Errorf("%w: product", ErrNotFound)
	}
	return s.userRepo.ToggleWishlist(ctx, userID, productID)
}

func (s *userService) GetWishlist(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error) {
	user, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Wishlist) == 0 {
		return []models.Product{}, nil
	}
	return s.productRepo.FindByIDs(ctx, user.Wishlist)
}
