package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-catalog/internal/authz"
)

// userID returns the bound user's id as a string, or "anon".
func userID(c echo.Context) string {
	if u := authz.FromContext(c.Request().Context()); u != nil {
		return strconv.FormatUint(u.ID, 10)
	}
	return "anon"
}
