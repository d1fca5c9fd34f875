package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/discover-nairobi/internal/handler"
	"github.com/iliyamo/discover-nairobi/internal/middleware"
	"github.com/iliyamo/discover-nairobi/internal/model"
)

// RegisterOrganizer registers ORGANIZER-scoped endpoints under
// /v1/organizer.  bust runs on every route and invalidates the public
// catalog cache after successful writes.
func RegisterOrganizer(e *echo.Echo, o *handler.OrganizerHandler, jwtSecret string, bust echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/organizer",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOrganizer),
		bust,
	)

	g.GET("/me", o.Me)
	g.PUT("/me", o.UpdateMe)

	// ---- Events ----
	g.GET("/events", o.ListEvents)
	g.POST("/events", o.CreateEvent)
	g.GET("/events/:id", o.GetEvent)
	g.PATCH("/events/:id", o.UpdateEvent)
	g.PUT("/events/:id", o.UpdateEvent) // alias for clients without PATCH
	g.DELETE("/events/:id", o.DeleteEvent)
	g.GET("/events/:id/analytics", o.EventAnalytics)

	g.GET("/dashboard", o.Dashboard)
	g.GET("/checkin/:code", o.CheckIn)
}
