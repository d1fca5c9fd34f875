package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

const (
	organizerEventsCollection = "organizer_events"
	organizersCollection      = "organizers"
	organizerIDsCollection    = "organizer_ids"
)

// organizerIDAttempts bounds the search for a free ORG id.
const organizerIDAttempts = 50

// Demo defaults for an organizer created on first access.
const (
	DefaultOrganizerName  = "Nairobi Events Co."
	DefaultOrganizerEmail = "organizer@discovernairobi.ke"
	DefaultOrganizerPhone = "+254 700 000 000"
	DefaultOrganizerBio   = "Premier event organizer in Nairobi, bringing the city's best experiences to life."
)

// OrganizerRepo stores organizer events keyed by event id and one
// organizer record per authenticated user.
type OrganizerRepo struct {
	store store.Store
	Now   func() time.Time
}

// NewOrganizerRepo returns an OrganizerRepo bound to the provided store.
func NewOrganizerRepo(s store.Store) *OrganizerRepo {
	return &OrganizerRepo{store: s, Now: time.Now}
}

// NewEventID derives an organizer event id from the creation time.
func NewEventID(at time.Time) string { return fmt.Sprintf("EVT%d", at.UnixMilli()) }

// ListEvents returns all organizer events ordered by creation time.
func (r *OrganizerRepo) ListEvents(ctx context.Context) ([]model.OrganizerEvent, error) {
	events, err := store.LoadAll[model.OrganizerEvent](ctx, r.store, organizerEventsCollection)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// ListByOrganizer returns the events owned by organizerID.
func (r *OrganizerRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]model.OrganizerEvent, error) {
	all, err := r.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.OrganizerEvent, 0, len(all))
	for _, e := range all {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListPublished returns every event with status published.
func (r *OrganizerRepo) ListPublished(ctx context.Context) ([]model.OrganizerEvent, error) {
	all, err := r.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.OrganizerEvent, 0, len(all))
	for _, e := range all {
		if e.Status == model.EventPublished {
			out = append(out, e)
		}
	}
	return out, nil
}

// SaveEvent inserts a new event.  A clashing id wraps ErrConflict.
func (r *OrganizerRepo) SaveEvent(ctx context.Context, e *model.OrganizerEvent) error {
	err := store.Create(ctx, r.store, organizerEventsCollection, e.ID, e)
	if errors.Is(err, store.ErrExists) {
		return fmt.Errorf("event id %s: %w", e.ID, ErrConflict)
	}
	return err
}

// UpdateEvent merge-patches the event with the given id.
func (r *OrganizerRepo) UpdateEvent(ctx context.Context, id string, patch model.OrganizerEventPatch) (*model.OrganizerEvent, error) {
	e, err := r.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(e)
	if err := store.Put(ctx, r.store, organizerEventsCollection, e.ID, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEvent removes the event outright.
func (r *OrganizerRepo) DeleteEvent(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, organizerEventsCollection, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}

// GetEvent returns the event or ErrEventNotFound.
func (r *OrganizerRepo) GetEvent(ctx context.Context, id string) (*model.OrganizerEvent, error) {
	e, err := store.LoadOne[model.OrganizerEvent](ctx, r.store, organizerEventsCollection, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// GetCurrent returns the organizer bound to userID or ErrOrganizerNotFound.
func (r *OrganizerRepo) GetCurrent(ctx context.Context, userID string) (*model.Organizer, error) {
	o, err := store.LoadOne[model.Organizer](ctx, r.store, organizersCollection, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrganizerNotFound
	}
	return o, err
}

// SetCurrent stores o as the organizer of userID.
func (r *OrganizerRepo) SetCurrent(ctx context.Context, userID string, o *model.Organizer) error {
	o.UserID = userID
	return store.Put(ctx, r.store, organizersCollection, userID, o)
}

// EnsureDefault returns the organizer of userID, creating the demo default
// on first access.  Repeated calls return the same persisted organizer.
func (r *OrganizerRepo) EnsureDefault(ctx context.Context, userID, email string) (*model.Organizer, error) {
	o, err := r.GetCurrent(ctx, userID)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, ErrOrganizerNotFound) {
		return nil, err
	}
	if email == "" {
		email = DefaultOrganizerEmail
	}
	now := r.Now().UTC()
	id, err := r.claimOrganizerID(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	o = &model.Organizer{
		ID:        id,
		UserID:    userID,
		Name:      DefaultOrganizerName,
		Email:     email,
		Phone:     DefaultOrganizerPhone,
		Bio:       DefaultOrganizerBio,
		CreatedAt: now,
	}
	err = store.Create(ctx, r.store, organizersCollection, userID, o)
	if errors.Is(err, store.ErrExists) {
		// another request created it first
		_ = r.store.Delete(ctx, organizerIDsCollection, id)
		return r.GetCurrent(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

type idOwner struct {
	UserID string `json:"userId"`
}

// claimOrganizerID reserves ORG<unix-millis>, moving forward one
// millisecond while the id belongs to another user.
func (r *OrganizerRepo) claimOrganizerID(ctx context.Context, userID string, at time.Time) (string, error) {
	ms := at.UnixMilli()
	for i := 0; i < organizerIDAttempts; i++ {
		id := fmt.Sprintf("ORG%d", ms+int64(i))
		err := store.Create(ctx, r.store, organizerIDsCollection, id, idOwner{UserID: userID})
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, store.ErrExists) {
			return "", err
		}
	}
	return "", fmt.Errorf("organizer id near ORG%d: %w", ms, ErrConflict)
}
