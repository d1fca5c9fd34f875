package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/discover-nairobi/internal/repository"
	"github.com/iliyamo/discover-nairobi/internal/service"
)

// OrganizerHandler serves the organizer workspace.  Every route acts on the
// organizer bound to the authenticated user.
type OrganizerHandler struct {
	Organizers *service.OrganizerService
	Users      *repository.UserRepo
}

func NewOrganizerHandler(s *service.OrganizerService, u *repository.UserRepo) *OrganizerHandler {
	if s == nil {
		panic("nil service passed to NewOrganizerHandler")
	}
	return &OrganizerHandler{Organizers: s, Users: u}
}

// caller resolves the user id and login email used to find the organizer.
func (h *OrganizerHandler) caller(c echo.Context) (uid, email string, err error) {
	uid, err = getUserID(c)
	if err != nil {
		return "", "", err
	}
	return uid, accountEmail(c.Request().Context(), h.Users, uid), nil
}

// Me returns the organizer, creating the default on first access.
func (h *OrganizerHandler) Me(c echo.Context) error {
	uid, email, err := h.caller(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Organizers.Me(ctx, uid, email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// UpdateMe edits the organizer profile.
func (h *OrganizerHandler) UpdateMe(c echo.Context) error {
	uid, email, err := h.caller(c)
	if err != nil {
		return unauthorized(c)
	}
	var req service.OrganizerUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Organizers.UpdateMe(ctx, uid, email, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// ListEvents returns the organizer's events, drafts included.
func (h *OrganizerHandler) ListEvents(c echo.Context) error {
	uid, email, err := h.caller(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Organizers.List(ctx, uid, email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "total": len(items)})
}

// CreateEvent publishes a new listing.
func (h *OrganizerHandler) CreateEvent(c echo.Context) error {
	uid, email, err := h.caller(c)
	if err != nil {
		return unauthorized(c)
	}
	var req service.EventInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Organizers.Create(ctx, uid, email, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// GetEvent returns one of the organizer's events.
func (h *OrganizerHandler) GetEvent(c echo.Context) error {
	uid, email, err := h.caller(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Organizers.Get(ctx, uid, email, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// UpdateEvent applies a merge-patch.
func (h *OrganizerHandler) UpdateEvent(c echo.Context) error {
	uid, email, err := h.caller(c)
	if err != nil {
		return unauthorized(c)
	}
	var req service.EventUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Organizers.Update(ctx, uid, email, c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// DeleteEvent removes a listing.
func (h *OrganizerHandler) DeleteEvent(c echo.Context) error {
	uid, email, err := h.caller(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Organizers.Delete(ctx, uid, email, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// EventAnalytics returns ticket totals for one event.
func (h *OrganizerHandler) EventAnalytics(c echo.Context) error {
	uid, email, err := h.caller(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.Organizers.EventAnalytics(ctx, uid, email, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Dashboard returns the overview across all events.
func (h *OrganizerHandler) Dashboard(c echo.Context) error {
	uid, email, err := h.caller(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Organizers.Dashboard(ctx, uid, email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// CheckIn validates a confirmation code at the venue.
func (h *OrganizerHandler) CheckIn(c echo.Context) error {
	uid, email, err := h.caller(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Organizers.CheckIn(ctx, uid, email, c.Param("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
