package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/repository"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

// ErrNotFound is returned when no catalog event has the id.
var ErrNotFound = errors.New("event not found")

// OrganizerEvents is the part of the organizer repository the catalog reads.
type OrganizerEvents interface {
	ListPublished(ctx context.Context) ([]model.OrganizerEvent, error)
	GetEvent(ctx context.Context, id string) (*model.OrganizerEvent, error)
}

// Fetcher loads a remote listing.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Event, error)
}

var logger = log.New("catalog")

// Catalog merges the base listing with published organizer events.  The
// base listing is the remote API when one is configured and reachable,
// otherwise the built-in samples.
type Catalog struct {
	organizers OrganizerEvents
	remote     Fetcher
	ttl        time.Duration
	now        func() time.Time

	refresh   singleflight.Group
	mu        sync.Mutex
	cached    []Event
	fetchedAt time.Time
}

// New builds a Catalog.  remote may be nil.
func New(organizers OrganizerEvents, remote Fetcher, ttl time.Duration) *Catalog {
	return &Catalog{organizers: organizers, remote: remote, ttl: ttl, now: time.Now}
}

// All returns every listed event.  Organizer listings that cannot be
// loaded are logged and left out; the base listing is always served.
func (c *Catalog) All(ctx context.Context) ([]Event, error) {
	base := c.base(ctx)
	published := store.OrEmpty(c.organizers.ListPublished(ctx))
	out := make([]Event, 0, len(base)+len(published))
	out = append(out, base...)
	for _, o := range published {
		out = append(out, FromOrganizerEvent(o))
	}
	return out, nil
}

// Search applies q to the full listing.
func (c *Catalog) Search(ctx context.Context, q SearchQuery) ([]Event, int, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, total := Search(all, q, c.now())
	return items, total, nil
}

// Facets counts filter values over the full listing.
func (c *Catalog) Facets(ctx context.Context) (Facets, error) {
	all, err := c.All(ctx)
	if err != nil {
		return Facets{}, err
	}
	return FacetsOf(all), nil
}

// Get returns a listed event.  Unpublished organizer events are hidden.
func (c *Catalog) Get(ctx context.Context, id string) (Event, error) {
	e, err := c.Lookup(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if !e.Bookable() {
		return Event{}, ErrNotFound
	}
	return e, nil
}

// Lookup returns the event with id whatever its status.
func (c *Catalog) Lookup(ctx context.Context, id string) (Event, error) {
	o, err := c.organizers.GetEvent(ctx, id)
	if err == nil {
		return FromOrganizerEvent(*o), nil
	}
	if !errors.Is(err, repository.ErrEventNotFound) {
		return Event{}, err
	}
	for _, e := range c.base(ctx) {
		if e.ID == id {
			return e, nil
		}
	}
	return Event{}, ErrNotFound
}

func (c *Catalog) base(ctx context.Context) []Event {
	if c.remote == nil {
		return Samples()
	}
	if events, ok := c.fresh(); ok {
		return events
	}
	// one fetch per refresh; concurrent readers wait for it without
	// holding mu
	v, _, _ := c.refresh.Do("base", func() (any, error) {
		if events, ok := c.fresh(); ok {
			return events, nil
		}
		events, err := c.remote.Fetch(context.WithoutCancel(ctx))
		c.mu.Lock()
		defer c.mu.Unlock()
		c.fetchedAt = c.now()
		if err != nil {
			// keep serving the last good listing, or the samples, until
			// the next refresh is due
			logger.Warnf("events api unavailable: %v", err)
			if c.cached == nil {
				c.cached = Samples()
			}
			return c.cached, nil
		}
		c.cached = events
		return events, nil
	})
	return v.([]Event)
}

func (c *Catalog) fresh() ([]Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.cached, true
	}
	return nil, false
}
