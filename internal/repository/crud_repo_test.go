package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weibaohui/contracthub/internal/model"
)

func TestClientRepositoryCRUD(t *testing.T) {
	repo := NewClientRepository(setupDB(t))
	ctx := context.Background()

	city := "Riyadh"
	client := &model.Client{ID: "client-1", Name: "Acme", Type: model.DefaultClientType, City: &city}
	require.NoError(t, repo.Create(ctx, client))
	assert.True(t, errors.Is(repo.Create(ctx, &model.Client{ID: "client-1", Name: "dup"}), ErrDuplicateID))

	client.Name = "Acme Ltd"
	require.NoError(t, repo.Update(ctx, client))
	got, err := repo.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", got.Name)
	assert.Equal(t, "Riyadh", *got.City)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, "client-1"))
	_, err = repo.Get(ctx, "client-1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, "client-1"), ErrNotFound))
	assert.True(t, errors.Is(repo.Update(ctx, client), ErrNotFound))
}

func TestUserRepositoryCRUD(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	ctx := context.Background()

	user := &model.User{Username: "admin", PasswordHash: "x", Role: model.RoleAdmin}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)
	assert.True(t, errors.Is(repo.Create(ctx, &model.User{Username: "admin", PasswordHash: "y", Role: model.RoleStaff}), ErrDuplicateID))

	got, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, repo.Update(ctx, user.ID, map[string]any{"display_name": "Root"}))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Root", got.DisplayName)

	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err = repo.GetByID(ctx, user.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(repo.Update(ctx, user.ID, map[string]any{"display_name": "x"}), ErrNotFound))
}

func TestTermRepositoryListNewestFirst(t *testing.T) {
	repo := NewTermRepository(setupDB(t))
	ctx := context.Background()

	first := &model.Term{Name: "Payment", Type: "text", Content: "30 days"}
	second := &model.Term{Name: "Liability", Type: "text", Content: "limited"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Liability", list[0].Name)

	first.Content = "45 days"
	require.NoError(t, repo.Update(ctx, first))
	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "45 days", got.Content)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, first.ID), ErrNotFound))
}
