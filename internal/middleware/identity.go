package middleware

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// UserID returns the authenticated user's id, or "" for guests.
func UserID(c echo.Context) string {
	s, _ := c.Get(CtxUserID).(string)
	return s
}

// Role returns the authenticated user's role, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(CtxRole).(string)
	return s
}

// subject is the user id used in cache and rate-limit keys.  Before
// JWTAuth has run, a bearer token stands in as a digest of itself.
func subject(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		sum := sha1.Sum([]byte(auth))
		return "tok-" + hex.EncodeToString(sum[:8])
	}
	return "anon"
}
