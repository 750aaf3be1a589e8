package repository

import (
	"context"
	"time"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/domain"
)

// Repository defines persistence for organisations and their memberships.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Organisation, error)
	GetByJoinCode(ctx context.Context, code string) (*domain.Organisation, error)
	// Create persists the organisation and its owner membership in one transaction.
	Create(ctx context.Context, o *domain.Organisation, owner *domain.Member) error
	// UpdateJoinCode replaces the organisation's join code; the prior code stops working.
	UpdateJoinCode(ctx context.Context, orgID, code string, rotatedAt time.Time) error
	// AddMember persists the membership, reporting domain.ErrDuplicateMember on collision.
	AddMember(ctx context.Context, m *domain.Member) error
	// GetMember returns the membership for (orgID, userID), or nil if not a member.
	GetMember(ctx context.Context, orgID, userID string) (*domain.Member, error)
	ListMembers(ctx context.Context, orgID string) ([]*domain.Member, error)
	// ListByMember returns organisations the user belongs to, oldest first.
	ListByMember(ctx context.Context, userID string) ([]*domain.Organisation, error)
}
