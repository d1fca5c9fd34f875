package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

func TestFavoriteToggle(t *testing.T) {
	ctx := context.Background()
	repo := NewFavoriteRepo(store.NewMemoryStore())

	ids, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	on, err := repo.Toggle(ctx, "user-1", "3")
	require.NoError(t, err)
	assert.True(t, on)
	_, err = repo.Toggle(ctx, "user-1", "EVT1")
	require.NoError(t, err)

	ids, err = repo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "EVT1"}, ids)

	fav, err := repo.IsFavorite(ctx, "user-1", "3")
	require.NoError(t, err)
	assert.True(t, fav)

	on, err = repo.Toggle(ctx, "user-1", "3")
	require.NoError(t, err)
	assert.False(t, on)
	ids, err = repo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"EVT1"}, ids)

	others, err := repo.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestProfileDefaultAndSave(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepo(store.NewMemoryStore())

	p, err := repo.Get(ctx, "user-1", "amani@example.com")
	require.NoError(t, err)
	assert.Equal(t, &model.UserProfile{Name: DefaultProfileName, Email: "amani@example.com", Phone: DefaultProfilePhone}, p)

	p.Name = "Amani Otieno"
	require.NoError(t, repo.Save(ctx, "user-1", p))
	got, err := repo.Get(ctx, "user-1", "ignored@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Amani Otieno", got.Name)
	assert.Equal(t, "amani@example.com", got.Email)
}
