package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/store"
	"github.com/iliyamo/discover-nairobi/internal/utils"
)

const (
	usersCollection      = "users"
	userEmailsCollection = "user_emails"
)

// ErrUserNotFound is returned when no account matches the lookup.
var ErrUserNotFound = errors.New("user not found")

var ErrEmailExists = errors.New("email already exists")

type UserRepo struct {
	store store.Store
	Now   func() time.Time
}

func NewUserRepo(s store.Store) *UserRepo { return &UserRepo{store: s, Now: time.Now} }

type emailEntry struct {
	UserID string `json:"userId"`
}

// Create inserts a user and returns it.  The email index entry is claimed
// first so two registrations for the same address cannot both succeed.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	now := r.Now().UTC()
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = store.Create(ctx, r.store, userEmailsCollection, email, emailEntry{UserID: u.ID})
	if errors.Is(err, store.ErrExists) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, err
	}
	if err := store.Create(ctx, r.store, usersCollection, u.ID, u); err != nil {
		_ = r.store.Delete(ctx, userEmailsCollection, email)
		return nil, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	entry, err := store.LoadOne[emailEntry](ctx, r.store, userEmailsCollection, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, entry.UserID)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := store.LoadOne[model.User](ctx, r.store, usersCollection, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}
