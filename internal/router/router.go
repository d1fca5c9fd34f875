// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/discover-nairobi/internal/handler"
	"github.com/iliyamo/discover-nairobi/internal/middleware"
	"github.com/iliyamo/discover-nairobi/internal/model"
)

// RegisterRoutes registers routes that need no authentication and no
// domain handler.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// protected /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)              // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	// logout accepts a refresh token in the body, so no JWT is required
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleCustomer, model.RoleOrganizer))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the guest-facing catalog and the payment
// gateway webhook.  cache wraps the catalog GETs.
func RegisterPublic(e *echo.Echo, ev *handler.EventsHandler, p *handler.PaymentHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/events", ev.List, cache)
	e.GET("/v1/events/facets", ev.Facets, cache)
	e.GET("/v1/events/:id", ev.Get, cache)

	// authenticated by the shared secret header, not a JWT
	e.POST("/v1/payments/mpesa/callback", p.MpesaCallback)
}
