package repository

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

const refreshTokensCollection = "refresh_tokens"

// ErrTokenInvalid is returned for unknown, revoked or expired refresh tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")

// TokenRepo persists and validates refresh token hashes.
type TokenRepo struct {
	store store.Store
	Now   func() time.Time
}

func NewTokenRepo(s store.Store) *TokenRepo { return &TokenRepo{store: s, Now: time.Now} }

// StoreRefresh records a refresh token hash for userID.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	return store.Put(ctx, r.store, refreshTokensCollection, tokenHash, model.RefreshToken{
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: exp.UTC(),
		CreatedAt: r.Now().UTC(),
	})
}

// ValidateRefresh returns the userID if a non-revoked, non-expired token exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	t, err := store.LoadOne[model.RefreshToken](ctx, r.store, refreshTokensCollection, tokenHash)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrTokenInvalid
	}
	if err != nil {
		return "", err
	}
	if t.RevokedAt != nil || r.Now().UTC().After(t.ExpiresAt) {
		return "", ErrTokenInvalid
	}
	return t.UserID, nil
}

// RevokeByHash marks a token as revoked.  Unknown hashes are ignored.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	t, err := store.LoadOne[model.RefreshToken](ctx, r.store, refreshTokensCollection, tokenHash)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return r.revoke(ctx, t)
}

// RevokeAllForUser revokes all of the user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	tokens, err := store.LoadAll[model.RefreshToken](ctx, r.store, refreshTokensCollection)
	if err != nil {
		return err
	}
	for i := range tokens {
		if tokens[i].UserID != userID {
			continue
		}
		if err := r.revoke(ctx, &tokens[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *TokenRepo) revoke(ctx context.Context, t *model.RefreshToken) error {
	if t.RevokedAt != nil {
		return nil
	}
	now := r.Now().UTC()
	t.RevokedAt = &now
	return store.Put(ctx, r.store, refreshTokensCollection, t.TokenHash, t)
}
