package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/repository"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

func seedOrganizerEvents(t *testing.T) *repository.OrganizerRepo {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewOrganizerRepo(store.NewMemoryStore())
	date := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range []model.OrganizerEvent{
		{ID: "EVT1", OrganizerID: "ORG1", Title: "Karura Night Walk", Category: "Community Events", Date: date, Time: "18:00", Location: "Karura Forest", Neighborhood: "Muthaiga", Price: 0, Capacity: 50, Status: model.EventPublished},
		{ID: "EVT2", OrganizerID: "ORG1", Title: "Draft Gala", Category: "Community Events", Date: date, Time: "18:00", Location: "KICC", Neighborhood: "CBD", Price: 4000, Capacity: 200, Status: model.EventDraft},
	} {
		require.NoError(t, repo.SaveEvent(ctx, &e))
	}
	return repo
}

func TestCatalogServesSamplesWhenOrganizerEventsAreDamaged(t *testing.T) {
	s := store.NewMemoryStore()
	s.Corrupt("organizer_events", "EVT1", []byte("{"))
	c := New(repository.NewOrganizerRepo(s), nil, time.Minute)

	all, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, len(Samples()))

	f, err := c.Facets(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, f.Categories)
}

func TestCatalogMergesSamplesAndPublished(t *testing.T) {
	c := New(seedOrganizerEvents(t), nil, time.Minute)
	all, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 10)
	assert.Equal(t, "EVT1", all[9].ID)
	assert.Equal(t, SourceOrganizer, all[9].Source)
	assert.Equal(t, 18, all[9].StartsAt.Hour())
}

func TestCatalogGetHidesUnpublished(t *testing.T) {
	ctx := context.Background()
	c := New(seedOrganizerEvents(t), nil, time.Minute)

	_, err := c.Get(ctx, "EVT2")
	assert.ErrorIs(t, err, ErrNotFound)

	e, err := c.Lookup(ctx, "EVT2")
	require.NoError(t, err)
	assert.Equal(t, model.EventDraft, e.Status)

	e, err = c.Get(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, 3000.0, e.Price)

	_, err = c.Get(ctx, "42")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoteConvertsNumericIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "title": "Amapiano Night at Westlands", "category": "Live Music", "date": "2025-10-25", "time": "8:00 PM", "venue": "The Alchemist", "neighborhood": "Westlands", "price": 1500, "image": "https://example.com/a.jpg"},
			{"id": "abc", "title": "Nyama Choma Festival", "date": "2025-10-26T00:00:00Z", "time": "12:00 PM", "location": "Karen Gardens", "price": 2000},
			{"id": 3, "title": "", "date": "2025-10-26"}
		]`))
	}))
	defer srv.Close()

	events, err := NewRemote(RemoteConfig{URL: srv.URL + "/", Timeout: time.Second}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "1", events[0].ID)
	assert.Equal(t, 20, events[0].StartsAt.Hour())
	assert.Equal(t, "https://example.com/a.jpg", events[0].ImageURL)
	assert.Equal(t, "abc", events[1].ID)
	assert.Equal(t, "2025-10-26", events[1].Date)
	assert.Equal(t, "Karen Gardens", events[1].Venue)
	assert.Equal(t, SourceRemote, events[1].Source)
}

type stubFetcher struct {
	events []Event
	err    error
	calls  int
}

func (s *stubFetcher) Fetch(context.Context) ([]Event, error) {
	s.calls++
	return s.events, s.err
}

func TestCatalogFallsBackToSamples(t *testing.T) {
	f := &stubFetcher{err: errors.New("connection refused")}
	c := New(seedOrganizerEvents(t), f, time.Minute)
	all, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 10)
	assert.Equal(t, SourceSample, all[0].Source)

	_, err = c.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestCatalogCachesRemote(t *testing.T) {
	f := &stubFetcher{events: []Event{{ID: "77", Title: "Remote", Date: "2025-10-30", Status: model.EventPublished, Source: SourceRemote}}}
	c := New(seedOrganizerEvents(t), f, time.Minute)
	clock := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	all, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"77", "EVT1"}, ids(all))
	_, _ = c.All(context.Background())
	assert.Equal(t, 1, f.calls)

	clock = clock.Add(2 * time.Minute)
	_, _ = c.All(context.Background())
	assert.Equal(t, 2, f.calls)
}

type slowFetcher struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (s *slowFetcher) Fetch(context.Context) ([]Event, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
	}
	<-s.release
	return []Event{{ID: "77", Title: "Remote", Date: "2025-10-30", Status: model.EventPublished, Source: SourceRemote}}, nil
}

func TestCatalogCollapsesConcurrentRefreshes(t *testing.T) {
	f := &slowFetcher{started: make(chan struct{}), release: make(chan struct{})}
	c := New(seedOrganizerEvents(t), f, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			all, err := c.All(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "77", all[0].ID)
		}()
	}
	<-f.started

	// organizer lookups do not queue behind the pending fetch
	e, err := c.Lookup(context.Background(), "EVT1")
	require.NoError(t, err)
	assert.Equal(t, "EVT1", e.ID)

	close(f.release)
	wg.Wait()
	assert.Equal(t, int32(1), f.calls.Load())
}
