package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

func TestUserRepository(t *testing.T) {
	userRepo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, userRepo.EnsureIndexes(ctx))

	user := &models.User{FirstName: "Ada", LastName: "L", Email: "ada@x.com", Password: "hash", Role: models.RoleUser}
	created, err := userRepo.Create(ctx, user)
	require.NoError(t, err)

	t.Run("find", func(t *testing.T) {
		found, err := userRepo.FindByEmail(ctx, "ada@x.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, created.ID, found.ID)

		missing, err := userRepo.FindByID(ctx, primitive.NewObjectID())
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := userRepo.Create(ctx, &models.User{Email: "ada@x.com"})
		require.Error(t, err)
		assert.True(t, mongo.IsDuplicateKeyError(err))
	})

	t.Run("password and block", func(t *testing.T) {
		require.NoError(t, userRepo.UpdatePassword(ctx, created.ID, "new-hash"))
		ok, err := userRepo.SetBlocked(ctx, created.ID, true)
		require.NoError(t, err)
		assert.True(t, ok)

		found, err := userRepo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", found.Password)
		assert.True(t, found.IsBlocked)
	})

	t.Run("wishlist toggle", func(t *testing.T) {
		productID := primitive.NewObjectID()
		added, err := userRepo.ToggleWishlist(ctx, created.ID, productID)
		require.NoError(t, err)
		assert.True(t, added)
		added, err = userRepo.ToggleWishlist(ctx, created.ID, productID)
		require.NoError(t, err)
		assert.False(t, added)
	})

	t.Run("counts", func(t *testing.T) {
		total, err := userRepo.CountAll(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		recent, err := userRepo.CountUsersCreatedBetween(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.EqualValues(t, 1, recent)
	})

	t.Run("delete", func(t *testing.T) {
		res, err := userRepo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.DeletedCount)
	})
}
