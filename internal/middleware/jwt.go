package middleware // reusable Echo middleware: identity, access guards, rate limiting, caching, logging

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/utils"
)

const bearerPrefix = "Bearer "

// UserLookup resolves a token subject to the stored account.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Identity resolves a Bearer access token into the live user record and
// binds it to the request context (see authz.FromContext). It never rejects:
// a missing header, a wrong prefix, an invalid or expired token, or a subject
// that no longer exists all leave the request anonymous, and access guards
// further down decide whether that is acceptable.
func Identity(codec *utils.TokenCodec, users UserLookup, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, bearerPrefix) {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, bearerPrefix)

			subject, err := codec.ExtractSubject(raw)
			if err != nil {
				log.WithError(err).Debug("identity: bearer token rejected")
				return next(c)
			}

			ctx := c.Request().Context()
			if authz.FromContext(ctx) != nil {
				return next(c)
			}

			// The stored record is authoritative for the role; the roles
			// claim in the token may be stale.
			u, err := users.GetByUsername(ctx, subject)
			if err != nil {
				log.WithError(err).Debug("identity: token subject did not resolve")
				return next(c)
			}
			if err := codec.ValidateFor(raw, u.Username); err != nil {
				log.WithError(err).Debug("identity: token not valid for user")
				return next(c)
			}

			c.SetRequest(c.Request().WithContext(authz.WithIdentity(ctx, u)))
			return next(c)
		}
	}
}
