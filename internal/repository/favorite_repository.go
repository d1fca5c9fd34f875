package repository

import (
	"context"
	"errors"

	"github.com/iliyamo/discover-nairobi/internal/store"
)

const favoritesCollection = "favorites"

// FavoriteRepo keeps one list of favourited event ids per user.
type FavoriteRepo struct{ store store.Store }

func NewFavoriteRepo(s store.Store) *FavoriteRepo { return &FavoriteRepo{store: s} }

// List returns the user's favourite event ids in the order they were added.
func (r *FavoriteRepo) List(ctx context.Context, userID string) ([]string, error) {
	ids, err := store.LoadOne[[]string](ctx, r.store, favoritesCollection, userID)
	if errors.Is(err, store.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if *ids == nil {
		return []string{}, nil
	}
	return *ids, nil
}

// Toggle adds eventID when absent and removes it when present.  It reports
// whether the event is a favourite afterwards.
func (r *FavoriteRepo) Toggle(ctx context.Context, userID, eventID string) (bool, error) {
	ids, err := r.List(ctx, userID)
	if err != nil {
		return false, err
	}
	out := make([]string, 0, len(ids)+1)
	removed := false
	for _, id := range ids {
		if id == eventID {
			removed = true
			continue
		}
		out = append(out, id)
	}
	if !removed {
		out = append(out, eventID)
	}
	if err := store.Put(ctx, r.store, favoritesCollection, userID, out); err != nil {
		return false, err
	}
	return !removed, nil
}

// IsFavorite reports whether eventID is in the user's favourites.
func (r *FavoriteRepo) IsFavorite(ctx context.Context, userID, eventID string) (bool, error) {
	ids, err := r.List(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == eventID {
			return true, nil
		}
	}
	return false, nil
}
