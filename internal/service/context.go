package service

import (
	"context"

	"github.com/sceneforged/sceneforged/internal/store"
)

type contextKey int

const userContextKey contextKey = iota

func withUser(ctx context.Context, u *store.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the authenticated user attached by requireAuth, or
// nil outside an authenticated request.
func UserFromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(userContextKey).(*store.User)
	return u
}
