package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
)

// UserID returns the authenticated staff id, or false on an anonymous request.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// Username returns the authenticated username or "".
func Username(c echo.Context) string {
	s, _ := c.Get(CtxUsername).(string)
	return s
}

// Role returns the authenticated role or "".
func Role(c echo.Context) string {
	s, _ := c.Get(CtxRole).(string)
	return s
}

// identity is the user part of rate limit keys: the username when known,
// "guest" otherwise.
func identity(c echo.Context) string {
	if u := Username(c); u != "" {
		return u
	}
	return "guest"
}
