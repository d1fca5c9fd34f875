package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/discover-nairobi/internal/catalog"
	"github.com/iliyamo/discover-nairobi/internal/middleware"
	"github.com/iliyamo/discover-nairobi/internal/payment"
	"github.com/iliyamo/discover-nairobi/internal/repository"
	"github.com/iliyamo/discover-nairobi/internal/service"
)

// requestTimeout bounds store calls made on behalf of a request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

var errUnauthenticated = errors.New("invalid user_id in context")

// getUserID returns the authenticated user id set by JWTAuth.
func getUserID(c echo.Context) (string, error) {
	id := middleware.UserID(c)
	if id == "" {
		return "", errUnauthenticated
	}
	return id, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// accountEmail looks up the caller's login email; "" when unknown.
func accountEmail(ctx context.Context, users *repository.UserRepo, id string) string {
	if users == nil {
		return ""
	}
	u, err := users.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return u.Email
}

// respondError maps domain errors to JSON error responses.
func respondError(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, errUnauthenticated):
		return unauthorized(c)
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": verr.Problems})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrEventNotFound), errors.Is(err, catalog.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, payment.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "payment session not found"})
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, payment.ErrPhoneTooShort),
		errors.Is(err, payment.ErrPhoneTooLong):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotBookable),
		errors.Is(err, service.ErrSoldOut),
		errors.Is(err, payment.ErrWrongStep),
		errors.Is(err, payment.ErrNotPending),
		errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout"})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
