package middleware

import (
	"context"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/security"
)

type contextKey struct{ name string }

var principalKey = contextKey{"principal"}

// Principal is the authenticated caller: user id, email, and the full
// role-assignment set from the access token.
type Principal struct {
	UserID string
	Email  string
	Roles  []security.RoleClaim
}

// WithPrincipal returns a context carrying the authenticated principal.
// Handlers and services read it via GetPrincipal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the principal from context and true if set; otherwise a zero Principal and false.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
