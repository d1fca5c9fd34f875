// Package catalog is the browsable list of events: built-in samples or a
// remote events API, plus published organizer listings.
package catalog

import (
	"strings"
	"time"

	"github.com/iliyamo/discover-nairobi/internal/model"
)

// Source tells where a catalog event came from.
type Source string

const (
	SourceSample    Source = "sample"
	SourceOrganizer Source = "organizer"
	SourceRemote    Source = "remote"
)

// DateLayout is the calendar-date format used for filtering and display.
const DateLayout = "2006-01-02"

// Nairobi is East Africa Time.  A fixed zone keeps the binary free of a
// tzdata dependency.
var Nairobi = time.FixedZone("EAT", 3*60*60)

// Event is one bookable listing.  IDs are always strings.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Description   string    `json:"description,omitempty"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	StartsAt      time.Time `json:"startsAt"`
	Venue         string    `json:"venue"`
	Neighborhood  string    `json:"neighborhood"`
	Price         float64   `json:"price"`
	ImageURL      string    `json:"imageUrl"`
	OrganizerID   string    `json:"organizerId,omitempty"`
	OrganizerName string    `json:"organizerName,omitempty"`
	Capacity      int       `json:"capacity,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Status        string    `json:"status"`
	Source        Source    `json:"source"`
}

// IsFree reports whether the event costs nothing.
func (e Event) IsFree() bool { return e.Price == 0 }

// Bookable reports whether tickets may be sold for the event.
func (e Event) Bookable() bool { return e.Status == model.EventPublished }

// FromOrganizerEvent converts an organizer listing to a catalog event.
func FromOrganizerEvent(o model.OrganizerEvent) Event {
	day := o.Date.In(Nairobi)
	return Event{
		ID:            o.ID,
		Title:         o.Title,
		Category:      o.Category,
		Description:   o.Description,
		Date:          day.Format(DateLayout),
		Time:          o.Time,
		StartsAt:      combine(day, o.Time),
		Venue:         o.Location,
		Neighborhood:  o.Neighborhood,
		Price:         o.Price,
		ImageURL:      o.ImageURL,
		OrganizerID:   o.OrganizerID,
		OrganizerName: o.OrganizerName,
		Capacity:      o.Capacity,
		Tags:          o.Tags,
		Status:        o.Status,
		Source:        SourceOrganizer,
	}
}

var clockLayouts = []string{"15:04", "3:04 PM", "3:04PM", "3 PM", "3PM"}

// ParseClock reads a display time such as "19:30" or "8:00 PM".
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}

// combine puts the clock time of clock on the calendar day of day, in
// Nairobi time.  An unreadable clock leaves the start at midnight.
func combine(day time.Time, clock string) time.Time {
	y, m, d := day.In(Nairobi).Date()
	h, min, _ := ParseClock(clock)
	return time.Date(y, m, d, h, min, 0, 0, Nairobi)
}

// dayStart parses a YYYY-MM-DD date at midnight Nairobi time.
func dayStart(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, Nairobi)
}
