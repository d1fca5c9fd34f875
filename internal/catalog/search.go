package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Views narrow the listing before the other filters apply.
const (
	ViewAll      = "all"
	ViewUpcoming = "upcoming"
	ViewFree     = "free"
	ViewWeekend  = "weekend"
)

// Sort orders.
const (
	SortDateAsc   = "date-asc"
	SortDateDesc  = "date-desc"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortNameAsc   = "name-asc"
)

// Catch-all filter values sent by the browse page.
const (
	AllCategories = "All Categories"
	AllAreas      = "All Areas"
)

// SearchQuery defines filters & pagination for browsing events.
type SearchQuery struct {
	Search       string
	Category     string
	Neighborhood string
	MinPrice     *float64
	MaxPrice     *float64
	DateFrom     string
	DateTo       string
	View         string
	Sort         string
	Page         int
	PageSize     int
}

// Facet is a filter value together with how many events carry it.
type Facet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets are the category and neighborhood filter options.
type Facets struct {
	Categories    []Facet `json:"categories"`
	Neighborhoods []Facet `json:"neighborhoods"`
}

// Search filters, sorts and paginates events.  It returns the page and the
// number of events matching before pagination.
func Search(events []Event, q SearchQuery, at time.Time) ([]Event, int) {
	matched := make([]Event, 0, len(events))
	for _, e := range events {
		if q.matches(e, at) {
			matched = append(matched, e)
		}
	}
	sortEvents(matched, q.Sort)

	total := len(matched)
	if q.PageSize <= 0 {
		return matched, total
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * q.PageSize
	if start >= total {
		return []Event{}, total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func (q SearchQuery) matches(e Event, at time.Time) bool {
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		if !strings.Contains(strings.ToLower(e.Title), s) && !strings.Contains(strings.ToLower(e.Venue), s) {
			return false
		}
	}
	if q.Category != "" && q.Category != AllCategories && e.Category != q.Category {
		return false
	}
	if q.Neighborhood != "" && q.Neighborhood != AllAreas && e.Neighborhood != q.Neighborhood {
		return false
	}
	if q.MinPrice != nil && e.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && e.Price > *q.MaxPrice {
		return false
	}
	// dates are YYYY-MM-DD so string order is calendar order
	if q.DateFrom != "" && e.Date < q.DateFrom {
		return false
	}
	if q.DateTo != "" && e.Date > q.DateTo {
		return false
	}

	local := at.In(Nairobi)
	switch q.View {
	case ViewFree:
		return e.IsFree()
	case ViewUpcoming:
		return e.Date >= local.Format(DateLayout)
	case ViewWeekend:
		sat, sun := Weekend(local)
		return e.Date >= sat.Format(DateLayout) && e.Date <= sun.Format(DateLayout)
	}
	return true
}

// Weekend returns the start of Saturday and the end of Sunday of the week
// containing t, weeks starting on Monday.
func Weekend(t time.Time) (saturday, sundayEnd time.Time) {
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: t.Location()}
	sundayEnd = cfg.With(t).EndOfWeek()
	saturday = now.With(sundayEnd.AddDate(0, 0, -1)).BeginningOfDay()
	return saturday, sundayEnd
}

func sortEvents(events []Event, order string) {
	var less func(a, b Event) bool
	switch order {
	case SortDateDesc:
		less = func(a, b Event) bool { return a.Date > b.Date }
	case SortPriceAsc:
		less = func(a, b Event) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b Event) bool { return a.Price > b.Price }
	case SortNameAsc:
		less = func(a, b Event) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortDateAsc, "":
		less = func(a, b Event) bool { return a.Date < b.Date }
	default:
		return
	}
	sort.SliceStable(events, func(i, j int) bool { return less(events[i], events[j]) })
}

// FacetsOf counts categories and neighborhoods, sorted by value.
func FacetsOf(events []Event) Facets {
	return Facets{
		Categories:    count(events, func(e Event) string { return e.Category }),
		Neighborhoods: count(events, func(e Event) string { return e.Neighborhood }),
	}
}

func count(events []Event, key func(Event) string) []Facet {
	counts := map[string]int{}
	for _, e := range events {
		if k := key(e); k != "" {
			counts[k]++
		}
	}
	out := make([]Facet, 0, len(counts))
	for v, n := range counts {
		out = append(out, Facet{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
