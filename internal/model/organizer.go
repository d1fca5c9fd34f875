package model

import "time"

// Organizer event statuses.
const (
	EventDraft     = "draft"
	EventPublished = "published"
	EventCancelled = "cancelled"
)

// DefaultEventImage is used when an organizer does not supply an image.
const DefaultEventImage = "https://images.unsplash.com/photo-1492684223066-81342ee5ff30?w=800"

// DefaultCapacity applies when an organizer event is created without one.
const DefaultCapacity = 100

// OrganizerEvent is a listing owned by exactly one organizer.  Unlike
// bookings it is freely mutable and deleted outright.
type OrganizerEvent struct {
	ID            string    `json:"id"`
	OrganizerID   string    `json:"organizerId"`
	OrganizerName string    `json:"organizerName"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Date          time.Time `json:"date"`
	Time          string    `json:"time"`
	Location      string    `json:"location"`
	Neighborhood  string    `json:"neighborhood"`
	ImageURL      string    `json:"imageUrl"`
	Price         float64   `json:"price"`
	Capacity      int       `json:"capacity"`
	Tags          []string  `json:"tags"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// OrganizerEventPatch carries the fields of a merge-patch.  Nil fields are
// left untouched.
type OrganizerEventPatch struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Category     *string    `json:"category"`
	Date         *time.Time `json:"date"`
	Time         *string    `json:"time"`
	Location     *string    `json:"location"`
	Neighborhood *string    `json:"neighborhood"`
	ImageURL     *string    `json:"imageUrl"`
	Price        *float64   `json:"price"`
	Capacity     *int       `json:"capacity"`
	Tags         []string   `json:"tags"`
	Status       *string    `json:"status"`
}

// Apply merges the non-nil fields of p into e.
func (p OrganizerEventPatch) Apply(e *OrganizerEvent) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Time != nil {
		e.Time = *p.Time
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Neighborhood != nil {
		e.Neighborhood = *p.Neighborhood
	}
	if p.ImageURL != nil {
		e.ImageURL = *p.ImageURL
	}
	if p.Price != nil {
		e.Price = *p.Price
	}
	if p.Capacity != nil {
		e.Capacity = *p.Capacity
	}
	if p.Tags != nil {
		e.Tags = p.Tags
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
}

// Organizer is the account profile entitled to manage listings.  One
// organizer exists per authenticated user.
type Organizer struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidEventStatus reports whether s is a known organizer event status.
func ValidEventStatus(s string) bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled:
		return true
	}
	return false
}
