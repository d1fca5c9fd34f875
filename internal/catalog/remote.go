package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/discover-nairobi/internal/model"
)

// RemoteConfig points at an external events API.  An empty URL disables
// the remote source.
type RemoteConfig struct {
	URL      string        `envconfig:"CATALOG_API_URL"`
	Timeout  time.Duration `envconfig:"CATALOG_API_TIMEOUT" default:"5s"`
	CacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`
}

// Remote fetches events from GET {URL}/api/events.
type Remote struct {
	base   string
	client *http.Client
}

func NewRemote(cfg RemoteConfig) *Remote {
	return &Remote{
		base:   strings.TrimRight(cfg.URL, "/"),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// flexID accepts a JSON string or number and keeps it as a string.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

type remoteEvent struct {
	ID           flexID  `json:"id"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Venue        string  `json:"venue"`
	Location     string  `json:"location"`
	Neighborhood string  `json:"neighborhood"`
	Price        float64 `json:"price"`
	Image        string  `json:"image"`
	ImageURL     string  `json:"imageUrl"`
	Capacity     int     `json:"capacity"`
}

func (r remoteEvent) toEvent() (Event, bool) {
	date := r.Date
	if len(date) > len(DateLayout) {
		date = date[:len(DateLayout)]
	}
	day, err := dayStart(date)
	if err != nil || r.ID == "" || r.Title == "" {
		return Event{}, false
	}
	venue := r.Venue
	if venue == "" {
		venue = r.Location
	}
	image := r.ImageURL
	if image == "" {
		image = r.Image
	}
	return Event{
		ID:           string(r.ID),
		Title:        r.Title,
		Category:     r.Category,
		Description:  r.Description,
		Date:         date,
		Time:         r.Time,
		StartsAt:     combine(day, r.Time),
		Venue:        venue,
		Neighborhood: r.Neighborhood,
		Price:        r.Price,
		ImageURL:     image,
		Capacity:     r.Capacity,
		Status:       model.EventPublished,
		Source:       SourceRemote,
	}, true
}

// Fetch loads the remote listing.  Entries without an id, title or a
// readable date are skipped.
func (r *Remote) Fetch(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+"/api/events", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("events api: status %d", resp.StatusCode)
	}
	var raw []remoteEvent
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("events api: %w", err)
	}
	out := make([]Event, 0, len(raw))
	for _, re := range raw {
		if e, ok := re.toEvent(); ok {
			out = append(out, e)
		}
	}
	return out, nil
}
