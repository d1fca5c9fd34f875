package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/repository"
)

// ProfileHandler serves the customer profile and favorites.
type ProfileHandler struct {
	Profiles  *repository.ProfileRepo
	Favorites *repository.FavoriteRepo
	Users     *repository.UserRepo
}

func NewProfileHandler(p *repository.ProfileRepo, f *repository.FavoriteRepo, u *repository.UserRepo) *ProfileHandler {
	return &ProfileHandler{Profiles: p, Favorites: f, Users: u}
}

// Get returns the profile or its defaults.
func (h *ProfileHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Profiles.Get(ctx, uid, accountEmail(ctx, h.Users, uid))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Update replaces the profile.  Name and email are required.
func (h *ProfileHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req model.UserProfile
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Profiles.Save(ctx, uid, &req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// ListFavorites returns the favorited event ids.
func (h *ProfileHandler) ListFavorites(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ids, err := h.Favorites.List(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": ids})
}

// ToggleFavorite adds or removes :eventId.
func (h *ProfileHandler) ToggleFavorite(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("eventId")
	on, err := h.Favorites.Toggle(ctx, uid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"eventId": id, "favorite": on})
}
