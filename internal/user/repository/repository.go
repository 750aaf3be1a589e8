package repository

import (
	"context"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

// Repository defines persistence for users and their role assignments.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// CreateWithRole persists the user and their role assignment in one transaction.
	CreateWithRole(ctx context.Context, u *domain.User, ra *domain.RoleAssignment) error
	// CreateFirstAdmin persists the bootstrap admin, failing with
	// domain.ErrAdminExists if any admin assignment already exists.
	CreateFirstAdmin(ctx context.Context, u *domain.User, ra *domain.RoleAssignment) error
	// ListRoleAssignments returns all role assignments for the user, oldest first.
	ListRoleAssignments(ctx context.Context, userID string) ([]*domain.RoleAssignment, error)
	// CountByRole returns how many users hold the given role (any scope).
	// The bootstrap admin path uses this to detect whether any admin exists.
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}
