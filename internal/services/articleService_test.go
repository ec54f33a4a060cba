package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestCreateArticleAssignsUniqueSlugs(t *testing.T) {
	svc := NewArticleService(newFakeArticleRepo())
	ctx := context.Background()

	payload := &models.ArticlePayload{Title: "  Spring Lookbook 2024 ", Description: "d", Category: "style"}
	first, err := svc.CreateArticle(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, "spring-lookbook-2024", first.Slug)
	assert.Equal(t, "Spring Lookbook 2024", first.Title)
	assert.Equal(t, "Admin", first.Author)
	assert.NotNil(t, first.Images)

	second, err := svc.CreateArticle(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, "spring-lookbook-2024-2", second.Slug)

	_, err = svc.CreateArticle(ctx, &models.ArticlePayload{Title: "!!!", Description: "d", Category: "style"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateArticleReslugsOnTitleChange(t *testing.T) {
	svc := NewArticleService(newFakeArticleRepo())
	ctx := context.Background()

	a, err := svc.CreateArticle(ctx, &models.ArticlePayload{Title: "Care Guide", Description: "d", Category: "tips", Author: "Mira"})
	require.NoError(t, err)
	_, err = svc.CreateArticle(ctx, &models.ArticlePayload{Title: "Linen Care", Description: "d", Category: "tips"})
	require.NoError(t, err)

	title := "Linen Care"
	updated, err := svc.UpdateArticle(ctx, a.ID, &models.ArticleUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "linen-care-2", updated.Slug)
	assert.Equal(t, "Mira", updated.Author)

	_, err = svc.UpdateArticle(ctx, a.ID, &models.ArticleUpdate{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateArticle(ctx, primitive.NewObjectID(), &models.ArticleUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadArticleCountsViews(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewArticleService(repo)
	ctx := context.Background()

	a, err := svc.CreateArticle(ctx, &models.ArticlePayload{Title: "Denim Fits", Description: "d", Category: "style"})
	require.NoError(t, err)

	first, err := svc.ReadArticle(ctx, a.Slug)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.NumViews)

	second, err := svc.ReadArticle(ctx, a.Slug)
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.NumViews)

	_, err = svc.ReadArticle(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReactLikeAndDislikeExcludeEachOther(t *testing.T) {
	svc := NewArticleService(newFakeArticleRepo())
	ctx := context.Background()

	a, err := svc.CreateArticle(ctx, &models.ArticlePayload{Title: "Summer Edit", Description: "d", Category: "style"})
	require.NoError(t, err)
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	got, err := svc.React(ctx, a.ID, alice, true)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{alice}, got.Likes)
	assert.Empty(t, got.Dislikes)

	got, err = svc.React(ctx, a.ID, alice, false)
	require.NoError(t, err)
	assert.Empty(t, got.Likes, "disliking drops the like")
	assert.Equal(t, []primitive.ObjectID{alice}, got.Dislikes)

	got, err = svc.React(ctx, a.ID, bob, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []primitive.ObjectID{alice, bob}, got.Dislikes)

	got, err = svc.React(ctx, a.ID, alice, false)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{bob}, got.Dislikes, "repeating a reaction removes it")
	assert.Empty(t, got.Likes)

	_, err = svc.React(ctx, primitive.NewObjectID(), alice, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteArticle(t *testing.T) {
	svc := NewArticleService(newFakeArticleRepo())
	ctx := context.Background()

	a, err := svc.CreateArticle(ctx, &models.ArticlePayload{Title: "Old News", Description: "d", Category: "news"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteArticle(ctx, a.ID))
	assert.ErrorIs(t, svc.DeleteArticle(ctx, a.ID), ErrNotFound)
}
