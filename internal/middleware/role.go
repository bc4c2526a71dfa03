package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/model"
)

// RequireAuth rejects anonymous requests with authz.ErrUnauthenticated.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authz.FromContext(c.Request().Context()) == nil {
				return authz.ErrUnauthenticated
			}
			return next(c)
		}
	}
}

// RequireRole lets a request through only when the bound user holds one of
// roles. Anonymous requests get authz.ErrUnauthenticated, everyone else an
// access-denied error naming the roles required.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r] = true
		names = append(names, r.String())
	}
	policy := authz.PolicyRole
	if len(roles) == 1 && roles[0] == model.RoleAdmin {
		policy = authz.PolicyAdminOnly
	}
	reason := "this operation requires the " + strings.Join(names, " or ") + " role"

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := authz.FromContext(c.Request().Context())
			if u == nil {
				return authz.ErrUnauthenticated
			}
			if !allowed[u.Role] {
				return authz.Deny(policy, reason)
			}
			return next(c)
		}
	}
}
