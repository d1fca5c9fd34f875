package repository

import (
	"context"
	"errors"

	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

const profilesCollection = "profiles"

// Defaults for a profile that has never been edited.
const (
	DefaultProfileName  = "John Doe"
	DefaultProfileEmail = "john.doe@example.com"
	DefaultProfilePhone = "+254 700 000000"
)

// ProfileRepo stores one UserProfile per user.
type ProfileRepo struct{ store store.Store }

func NewProfileRepo(s store.Store) *ProfileRepo { return &ProfileRepo{store: s} }

// Get returns the stored profile or a default seeded with the account email.
func (r *ProfileRepo) Get(ctx context.Context, userID, accountEmail string) (*model.UserProfile, error) {
	p, err := store.LoadOne[model.UserProfile](ctx, r.store, profilesCollection, userID)
	if errors.Is(err, store.ErrNotFound) {
		email := accountEmail
		if email == "" {
			email = DefaultProfileEmail
		}
		return &model.UserProfile{Name: DefaultProfileName, Email: email, Phone: DefaultProfilePhone}, nil
	}
	return p, err
}

// Save replaces the user's profile.
func (r *ProfileRepo) Save(ctx context.Context, userID string, p *model.UserProfile) error {
	return store.Put(ctx, r.store, profilesCollection, userID, p)
}
