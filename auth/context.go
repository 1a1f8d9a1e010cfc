package auth

import (
	"context"

	"github.com/user/taskmanager-go/users"
)

// Identity is the authenticated caller of a request. Handlers read it from
// the request context once and pass it explicitly into every service call.
type Identity struct {
	UserID   string
	Username string
}

// `contextKey` is a custom type for context keys, so keys from other
// packages cannot collide with ours.
type contextKey string

const userContextKey contextKey = "auth_user"

// NewContextWithUser returns a child context carrying the authenticated user.
func NewContextWithUser(ctx context.Context, u *users.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext extracts the user stored by the JWT middleware.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	u, ok := ctx.Value(userContextKey).(*users.User)
	return u, ok && u != nil
}

// IdentityFromContext returns the Identity of the authenticated user, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return Identity{}, false
	}
	return Identity{UserID: u.ID, Username: u.Username}, true
}
