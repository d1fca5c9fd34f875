package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/discover-nairobi/internal/catalog"
	"github.com/iliyamo/discover-nairobi/internal/model"
	q "github.com/iliyamo/discover-nairobi/internal/queue"
	"github.com/iliyamo/discover-nairobi/internal/repository"
)

// ValidationError lists every problem found in an event payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid event: " + strings.Join(e.Problems, "; ")
}

// TagList accepts either a JSON array or a comma-separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = strings.Split(s, ",")
	return nil
}

// NormalizeTags trims tags, drops empty ones and removes duplicates,
// keeping first occurrences in order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, raw := range tags {
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// EventInput is the payload for creating an organizer event.  Date is
// YYYY-MM-DD in Nairobi time.
type EventInput struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Location     string  `json:"location"`
	Neighborhood string  `json:"neighborhood"`
	ImageURL     string  `json:"imageUrl"`
	Price        float64 `json:"price"`
	Capacity     int     `json:"capacity"`
	Tags         TagList `json:"tags"`
	Status       string  `json:"status"`
}

// EventUpdate is a merge-patch.  Absent fields are left untouched.
type EventUpdate struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	Date         *string  `json:"date"`
	Time         *string  `json:"time"`
	Location     *string  `json:"location"`
	Neighborhood *string  `json:"neighborhood"`
	ImageURL     *string  `json:"imageUrl"`
	Price        *float64 `json:"price"`
	Capacity     *int     `json:"capacity"`
	Tags         TagList  `json:"tags"`
	Status       *string  `json:"status"`
}

// OrganizerUpdate edits the organizer profile.
type OrganizerUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Bio   *string `json:"bio"`
}

// CheckIn is the result of scanning a confirmation code at the venue.
// Valid is false for cancelled or already used tickets, with Reason set.
type CheckIn struct {
	Booking model.Booking `json:"booking"`
	Valid   bool          `json:"valid"`
	Reason  string        `json:"reason,omitempty"`
}

// OrganizerService manages an organizer's listings and reports.  Every
// operation acts on the organizer bound to the calling user.
type OrganizerService struct {
	Organizers *repository.OrganizerRepo
	Bookings   *repository.BookingRepo
	Analytics  *repository.AnalyticsRepo
	Publisher  Publisher
	Now        func() time.Time
}

func NewOrganizerService(organizers *repository.OrganizerRepo, bookings *repository.BookingRepo, pub Publisher) *OrganizerService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &OrganizerService{
		Organizers: organizers,
		Bookings:   bookings,
		Analytics:  repository.NewAnalyticsRepo(bookings),
		Publisher:  pub,
		Now:        time.Now,
	}
}

// Me returns the caller's organizer, creating the default one on first use.
func (s *OrganizerService) Me(ctx context.Context, userID, email string) (*model.Organizer, error) {
	return s.Organizers.EnsureDefault(ctx, userID, email)
}

// UpdateMe merges u into the caller's organizer profile.
func (s *OrganizerService) UpdateMe(ctx context.Context, userID, email string, u OrganizerUpdate) (*model.Organizer, error) {
	o, err := s.Me(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return nil, &ValidationError{Problems: []string{"name is required"}}
		}
		o.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		o.Email = strings.TrimSpace(*u.Email)
	}
	if u.Phone != nil {
		o.Phone = strings.TrimSpace(*u.Phone)
	}
	if u.Bio != nil {
		o.Bio = *u.Bio
	}
	if err := s.Organizers.SetCurrent(ctx, userID, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Create validates in and stores a new event owned by the caller.
func (s *OrganizerService) Create(ctx context.Context, userID, email string, in EventInput) (*model.OrganizerEvent, error) {
	org, err := s.Me(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	var problems []string
	required := []struct{ name, value string }{
		{"title", in.Title},
		{"category", in.Category},
		{"date", in.Date},
		{"time", in.Time},
		{"location", in.Location},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			problems = append(problems, f.name+" is required")
		}
	}
	var date time.Time
	if strings.TrimSpace(in.Date) != "" {
		if date, err = parseDate(in.Date); err != nil {
			problems = append(problems, "date must be YYYY-MM-DD")
		}
	}
	if in.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if in.Capacity < 0 {
		problems = append(problems, "capacity must be positive")
	}
	status := in.Status
	if status == "" {
		status = model.EventPublished
	}
	if !model.ValidEventStatus(status) {
		problems = append(problems, "unknown status "+status)
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	capacity := in.Capacity
	if capacity == 0 {
		capacity = model.DefaultCapacity
	}
	image := strings.TrimSpace(in.ImageURL)
	if image == "" {
		image = model.DefaultEventImage
	}

	now := s.Now().UTC()
	e := &model.OrganizerEvent{
		OrganizerID:   org.ID,
		OrganizerName: org.Name,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(in.Category),
		Date:          date,
		Time:          strings.TrimSpace(in.Time),
		Location:      strings.TrimSpace(in.Location),
		Neighborhood:  strings.TrimSpace(in.Neighborhood),
		ImageURL:      image,
		Price:         in.Price,
		Capacity:      capacity,
		Tags:          NormalizeTags(in.Tags),
		Status:        status,
		CreatedAt:     now,
	}
	for i := 0; i < saveAttempts; i++ {
		e.ID = repository.NewEventID(now.Add(time.Duration(i) * time.Millisecond))
		err = s.Organizers.SaveEvent(ctx, e)
		if !errors.Is(err, repository.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns the caller's events.
func (s *OrganizerService) List(ctx context.Context, userID, email string) ([]model.OrganizerEvent, error) {
	org, err := s.Me(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	return s.Organizers.ListByOrganizer(ctx, org.ID)
}

// Get returns one of the caller's events.  Events of other organizers
// yield repository.ErrForbidden.
func (s *OrganizerService) Get(ctx context.Context, userID, email, id string) (*model.OrganizerEvent, error) {
	org, err := s.Me(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	e, err := s.Organizers.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != org.ID {
		return nil, repository.ErrForbidden
	}
	return e, nil
}

// Update merge-patches the event.  Moving it to cancelled cancels every
// confirmed booking for it with a full refund.
func (s *OrganizerService) Update(ctx context.Context, userID, email, id string, u EventUpdate) (*model.OrganizerEvent, error) {
	current, err := s.Get(ctx, userID, email, id)
	if err != nil {
		return nil, err
	}
	patch, err := u.toPatch()
	if err != nil {
		return nil, err
	}
	updated, err := s.Organizers.UpdateEvent(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated.Status == model.EventCancelled && current.Status != model.EventCancelled {
		if err := s.cancelBookings(ctx, id); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (u EventUpdate) toPatch() (model.OrganizerEventPatch, error) {
	var problems []string
	p := model.OrganizerEventPatch{
		Description:  u.Description,
		Neighborhood: u.Neighborhood,
		ImageURL:     u.ImageURL,
		Price:        u.Price,
		Capacity:     u.Capacity,
		Status:       u.Status,
	}
	for _, f := range []struct {
		name string
		in   *string
		out  **string
	}{
		{"title", u.Title, &p.Title},
		{"category", u.Category, &p.Category},
		{"time", u.Time, &p.Time},
		{"location", u.Location, &p.Location},
	} {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if v == "" {
			problems = append(problems, f.name+" is required")
		}
		*f.out = &v
	}
	if u.Date != nil {
		d, err := parseDate(*u.Date)
		if err != nil {
			problems = append(problems, "date must be YYYY-MM-DD")
		}
		p.Date = &d
	}
	if u.Price != nil && *u.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if u.Capacity != nil && *u.Capacity < 1 {
		problems = append(problems, "capacity must be positive")
	}
	if u.Status != nil && !model.ValidEventStatus(*u.Status) {
		problems = append(problems, "unknown status "+*u.Status)
	}
	if u.Tags != nil {
		p.Tags = NormalizeTags(u.Tags)
	}
	if len(problems) > 0 {
		return p, &ValidationError{Problems: problems}
	}
	return p, nil
}

func (s *OrganizerService) cancelBookings(ctx context.Context, eventID string) error {
	bookings, err := s.Bookings.ListByEvent(ctx, eventID)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if b.IsCancelled() {
			continue
		}
		cancelled, err := s.Bookings.Cancel(ctx, b.ID)
		if err != nil {
			return err
		}
		ev := q.BookingCancelledEvent{
			BookingID:        cancelled.ID,
			UserID:           cancelled.UserID,
			EventID:          cancelled.EventID,
			ConfirmationCode: cancelled.ConfirmationCode,
			RefundAmount:     cancelled.Refunded(),
			Reason:           q.ReasonEventCancelled,
			CancelledAt:      s.Now().UTC().Format(time.RFC3339),
		}
		if err := s.Publisher.PublishBookingCancelled(ctx, ev); err != nil {
			logger.Warnf("publish booking.cancelled %s: %v", cancelled.ID, err)
		}
	}
	return nil
}

// Delete removes one of the caller's events.  Its bookings are kept.
func (s *OrganizerService) Delete(ctx context.Context, userID, email, id string) error {
	if _, err := s.Get(ctx, userID, email, id); err != nil {
		return err
	}
	return s.Organizers.DeleteEvent(ctx, id)
}

// EventAnalytics reports ticket sales for one of the caller's events.
func (s *OrganizerService) EventAnalytics(ctx context.Context, userID, email, id string) (model.EventAnalytics, error) {
	if _, err := s.Get(ctx, userID, email, id); err != nil {
		return model.EventAnalytics{}, err
	}
	return s.Analytics.EventAnalytics(ctx, id)
}

// Dashboard summarises all of the caller's events.
func (s *OrganizerService) Dashboard(ctx context.Context, userID, email string) (model.Dashboard, error) {
	org, err := s.Me(ctx, userID, email)
	if err != nil {
		return model.Dashboard{}, err
	}
	events, err := s.Organizers.ListByOrganizer(ctx, org.ID)
	if err != nil {
		return model.Dashboard{}, err
	}
	return s.Analytics.Dashboard(ctx, *org, events, s.Now())
}

// CheckIn validates a confirmation code for one of the caller's events
// and marks the ticket used.
func (s *OrganizerService) CheckIn(ctx context.Context, userID, email, code string) (*CheckIn, error) {
	b, err := s.Bookings.GetByConfirmationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, userID, email, b.EventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, repository.ErrForbidden
		}
		return nil, err
	}
	switch {
	case b.IsCancelled():
		return &CheckIn{Booking: *b, Reason: "booking cancelled"}, nil
	case b.CheckedInAt != nil:
		return &CheckIn{Booking: *b, Reason: "already checked in"}, nil
	}
	b, err = s.Bookings.MarkCheckedIn(ctx, b.ID, s.Now())
	if err != nil {
		return nil, err
	}
	return &CheckIn{Booking: *b, Valid: true}, nil
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(catalog.DateLayout, strings.TrimSpace(s), catalog.Nairobi)
}
