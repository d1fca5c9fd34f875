package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/discover-nairobi/internal/catalog"
	"github.com/iliyamo/discover-nairobi/internal/export"
	"github.com/iliyamo/discover-nairobi/internal/repository"
	"github.com/iliyamo/discover-nairobi/internal/service"
)

// BookingHandler serves a customer's bookings and their downloads.
type BookingHandler struct {
	Bookings *service.BookingService
	Profiles *repository.ProfileRepo
	Users    *repository.UserRepo
}

func NewBookingHandler(b *service.BookingService, p *repository.ProfileRepo, u *repository.UserRepo) *BookingHandler {
	return &BookingHandler{Bookings: b, Profiles: p, Users: u}
}

type checkoutReq struct {
	EventID  string `json:"eventId"`
	Quantity *int   `json:"quantity"` // absent means 1
}

// Create books tickets.  Free events answer 201 with the booking; paid
// events answer 202 with the payment session to drive.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.EventID = strings.TrimSpace(req.EventID)
	if req.EventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "eventId required"})
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Bookings.Checkout(ctx, uid, req.EventID, qty)
	if err != nil {
		return respondError(c, err)
	}
	if out.Booking != nil {
		return c.JSON(http.StatusCreated, out)
	}
	return c.JSON(http.StatusAccepted, out)
}

// List returns the caller's bookings.  scope is upcoming, past or all.
func (h *BookingHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	scope := strings.ToLower(strings.TrimSpace(c.QueryParam("scope")))
	switch scope {
	case "", "all":
		scope = ""
	case "upcoming", "past":
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scope must be upcoming, past or all"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Bookings.List(ctx, uid, scope)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "total": len(items)})
}

// ListForUser serves /users/:userId/bookings.  Callers may only list
// their own bookings.
func (h *BookingHandler) ListForUser(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	if c.Param("userId") != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return h.List(c)
}

// Get returns one of the caller's bookings.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Get(ctx, uid, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel cancels one of the caller's bookings.  Repeating it is harmless.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Cancel(ctx, uid, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Ticket downloads the plaintext e-ticket.
func (h *BookingHandler) Ticket(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Get(ctx, uid, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Profiles.Get(ctx, uid, accountEmail(ctx, h.Users, uid))
	if err != nil {
		return respondError(c, err)
	}
	body := export.Ticket(*b, export.Contact{Email: p.Email, Phone: p.Phone}, catalog.Nairobi)
	return attach(c, "text/plain; charset=utf-8", export.TicketFileName(b.ConfirmationCode), []byte(body))
}

// Calendar downloads an iCalendar file for the booked event.
func (h *BookingHandler) Calendar(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Get(ctx, uid, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	body := export.Calendar(*b, time.Now())
	return attach(c, "text/calendar; charset=utf-8", export.CalendarFileName(b.EventTitle), []byte(body))
}

// QR returns the confirmation code as a PNG QR code.
func (h *BookingHandler) QR(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Get(ctx, uid, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	png, err := export.QR(b.ConfirmationCode)
	if err != nil {
		return respondError(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func attach(c echo.Context, contentType, name string, body []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, contentType, body)
}
