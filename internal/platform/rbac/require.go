package rbac

import (
	"context"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/server/middleware"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

// Require ensures the caller is authenticated and satisfies the required role
// (orgID scopes manager checks; empty means any scope). Returns the caller's
// principal on success; ErrUnauthenticated or ErrForbidden on failure.
func (a *Authorizer) Require(ctx context.Context, required userdomain.Role, orgID string) (middleware.Principal, error) {
	p, ok := middleware.GetPrincipal(ctx)
	if !ok || p.UserID == "" {
		return middleware.Principal{}, ErrUnauthenticated
	}
	allowed, err := a.Allow(ctx, p.Roles, required, orgID)
	if err != nil {
		return middleware.Principal{}, err
	}
	if !allowed {
		return middleware.Principal{}, ErrForbidden
	}
	return p, nil
}
