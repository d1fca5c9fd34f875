package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/discover-nairobi/internal/handler"
	"github.com/iliyamo/discover-nairobi/internal/middleware"
	"github.com/iliyamo/discover-nairobi/internal/model"
)

// RegisterCustomer registers booking, payment, profile and favorite
// endpoints under /v1.  Organizers can book tickets too, so both roles are
// accepted.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, prof *handler.ProfileHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleOrganizer),
	)

	// ---- Bookings ----
	g.POST("/bookings", b.Create)
	g.GET("/bookings", b.List) // ?scope=upcoming|past|all
	g.GET("/users/:userId/bookings", b.ListForUser)
	g.GET("/bookings/:id", b.Get)
	g.POST("/bookings/:id/cancel", b.Cancel)
	g.GET("/bookings/:id/ticket", b.Ticket)
	g.GET("/bookings/:id/calendar", b.Calendar)
	g.GET("/bookings/:id/qr", b.QR)

	// ---- M-PESA checkout ----
	g.POST("/payments/mpesa", b.Create)
	g.GET("/payments/:id", p.Get)
	g.PUT("/payments/:id/phone", p.SetPhone)
	g.POST("/payments/:id/submit", p.Submit)
	g.POST("/payments/:id/pin", p.EnterPIN)
	g.POST("/payments/:id/key", p.PressKey)
	g.POST("/payments/:id/retry", p.Retry)
	g.POST("/payments/:id/reset", p.Reset)
	g.DELETE("/payments/:id", p.Close)

	// ---- Profile ----
	g.GET("/profile", prof.Get)
	g.PUT("/profile", prof.Update)
	g.GET("/favorites", prof.ListFavorites)
	g.POST("/favorites/:eventId", prof.ToggleFavorite)
}
