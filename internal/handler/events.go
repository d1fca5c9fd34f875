package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/discover-nairobi/internal/catalog"
)

// EventsHandler serves the public event catalog.
type EventsHandler struct {
	Catalog *catalog.Catalog
}

func NewEventsHandler(c *catalog.Catalog) *EventsHandler { return &EventsHandler{Catalog: c} }

// List searches the catalog.
//
// Query: search, category, neighborhood, min_price, max_price, date_from,
// date_to (YYYY-MM-DD), view (all|upcoming|free|weekend),
// sort (date-asc|date-desc|price-asc|price-desc|name-asc), page, page_size.
func (h *EventsHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	q := catalog.SearchQuery{
		Search:       strings.TrimSpace(c.QueryParam("search")),
		Category:     strings.TrimSpace(c.QueryParam("category")),
		Neighborhood: strings.TrimSpace(c.QueryParam("neighborhood")),
		DateFrom:     strings.TrimSpace(c.QueryParam("date_from")),
		DateTo:       strings.TrimSpace(c.QueryParam("date_to")),
		View:         strings.ToLower(strings.TrimSpace(c.QueryParam("view"))),
		Sort:         strings.ToLower(strings.TrimSpace(c.QueryParam("sort"))),
		Page:         page,
		PageSize:     ps,
	}
	var err error
	if q.MinPrice, err = priceParam(c, "min_price"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_price"})
	}
	if q.MaxPrice, err = priceParam(c, "max_price"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_price"})
	}

	items, total, err := h.Catalog.Search(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

func priceParam(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, strconv.ErrSyntax
	}
	return &v, nil
}

// Facets returns the category and neighborhood filter options.
func (h *EventsHandler) Facets(c echo.Context) error {
	f, err := h.Catalog.Facets(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// Get returns one published event.
func (h *EventsHandler) Get(c echo.Context) error {
	e, err := h.Catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}
