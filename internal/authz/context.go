package authz

import (
	"context"

	"github.com/iliyamo/game-catalog/internal/model"
)

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying u as the authenticated actor.
func WithIdentity(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the authenticated actor, or nil for anonymous requests.
func FromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(ctxKey{}).(*model.User)
	return u
}
