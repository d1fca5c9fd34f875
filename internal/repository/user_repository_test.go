package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/store"
	"github.com/iliyamo/discover-nairobi/internal/utils"
)

func TestUserCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(store.NewMemoryStore())

	u, err := repo.Create(ctx, "  Wanjiku@Example.com ", "s3cret-pass", model.RoleCustomer, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, "wanjiku@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "s3cret-pass"))

	byEmail, err := repo.GetByEmail(ctx, "WANJIKU@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, byID.Role)

	_, err = repo.Create(ctx, "wanjiku@example.com", "other", model.RoleOrganizer, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepo(store.NewMemoryStore())
	now := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	repo.Now = fixedClock(now)

	require.NoError(t, repo.StoreRefresh(ctx, "user-1", "h1", now.Add(time.Hour)))
	require.NoError(t, repo.StoreRefresh(ctx, "user-1", "h2", now.Add(time.Hour)))
	require.NoError(t, repo.StoreRefresh(ctx, "user-2", "h3", now.Add(time.Hour)))

	uid, err := repo.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)

	require.NoError(t, repo.RevokeByHash(ctx, "h1"))
	_, err = repo.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	require.NoError(t, repo.RevokeByHash(ctx, "unknown"))

	require.NoError(t, repo.RevokeAllForUser(ctx, "user-1"))
	_, err = repo.ValidateRefresh(ctx, "h2")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = repo.ValidateRefresh(ctx, "h3")
	assert.NoError(t, err)

	repo.Now = fixedClock(now.Add(2 * time.Hour))
	_, err = repo.ValidateRefresh(ctx, "h3")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
