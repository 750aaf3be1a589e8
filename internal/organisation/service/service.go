package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/domain"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/security"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

// Sentinel errors for the organisation service; the handler maps them to HTTP status codes.
var (
	ErrOrgNotFound     = errors.New("organisation not found")
	ErrInvalidJoinCode = errors.New("invalid join code")
	ErrAlreadyMember   = errors.New("already a member of this organisation")
	ErrNotMember       = errors.New("not a member of this organisation")
	ErrNotOwner        = errors.New("only the owning manager may do this")
	ErrNameRequired    = errors.New("name is required")
)

// OrgRepo is the organisation repository needed by the service.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Organisation, error)
	GetByJoinCode(ctx context.Context, code string) (*domain.Organisation, error)
	Create(ctx context.Context, o *domain.Organisation, owner *domain.Member) error
	UpdateJoinCode(ctx context.Context, orgID, code string, rotatedAt time.Time) error
	AddMember(ctx context.Context, m *domain.Member) error
	GetMember(ctx context.Context, orgID, userID string) (*domain.Member, error)
	ListMembers(ctx context.Context, orgID string) ([]*domain.Member, error)
	ListByMember(ctx context.Context, userID string) ([]*domain.Organisation, error)
}

// Service implements organisation creation, join-code rotation, and membership.
type Service struct {
	orgRepo OrgRepo
}

// NewService returns a Service with the given dependencies.
func NewService(orgRepo OrgRepo) *Service {
	return &Service{orgRepo: orgRepo}
}

// Create creates an organisation owned by ownerID with a fresh join code.
// The owner is added as a member with the manager membership role.
func (s *Service) Create(ctx context.Context, ownerID, name string) (*domain.Organisation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	code, err := security.GenerateJoinCode()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	org := &domain.Organisation{
		ID:                uuid.New().String(),
		Name:              name,
		OwnerID:           ownerID,
		JoinCode:          code,
		JoinCodeRotatedAt: now,
		CreatedAt:         now,
	}
	if err := org.Validate(); err != nil {
		return nil, err
	}
	owner := &domain.Member{
		OrgID:    org.ID,
		UserID:   ownerID,
		Role:     userdomain.RoleManager,
		JoinedAt: now,
	}
	if err := s.orgRepo.Create(ctx, org, owner); err != nil {
		return nil, err
	}
	return org, nil
}

// GenerateJoinCode replaces the organisation's join code and returns the new
// code. Permitted to the owning manager and to global admins; the prior code
// stops working immediately.
func (s *Service) GenerateJoinCode(ctx context.Context, actorID, orgID string, actorIsAdmin bool) (string, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return "", err
	}
	if org == nil {
		return "", ErrOrgNotFound
	}
	if !actorIsAdmin && org.OwnerID != actorID {
		return "", ErrNotOwner
	}
	code, err := security.GenerateJoinCode()
	if err != nil {
		return "", err
	}
	if err := s.orgRepo.UpdateJoinCode(ctx, orgID, code, time.Now().UTC()); err != nil {
		return "", err
	}
	return code, nil
}

// Join admits the user to the organisation holding the given join code.
func (s *Service) Join(ctx context.Context, userID, code string) (*domain.Organisation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidJoinCode
	}
	org, err := s.orgRepo.GetByJoinCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrInvalidJoinCode
	}
	existing, err := s.orgRepo.GetMember(ctx, org.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}
	member := &domain.Member{
		OrgID:    org.ID,
		UserID:   userID,
		Role:     userdomain.RoleUser,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.orgRepo.AddMember(ctx, member); err != nil {
		// A join racing another join for the same user lands here.
		if errors.Is(err, domain.ErrDuplicateMember) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return org, nil
}

// Get returns the organisation. Visible to members and to global admins.
func (s *Service) Get(ctx context.Context, actorID, orgID string, actorIsAdmin bool) (*domain.Organisation, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrgNotFound
	}
	if !actorIsAdmin && org.OwnerID != actorID {
		m, err := s.orgRepo.GetMember(ctx, orgID, actorID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, ErrNotMember
		}
	}
	return org, nil
}

// ListMembers returns the organisation's members. Visible to members and to
// global admins.
func (s *Service) ListMembers(ctx context.Context, actorID, orgID string, actorIsAdmin bool) ([]*domain.Member, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrgNotFound
	}
	if !actorIsAdmin {
		m, err := s.orgRepo.GetMember(ctx, orgID, actorID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, ErrNotMember
		}
	}
	return s.orgRepo.ListMembers(ctx, orgID)
}

// ListMine returns the organisations the user belongs to.
func (s *Service) ListMine(ctx context.Context, userID string) ([]*domain.Organisation, error) {
	return s.orgRepo.ListByMember(ctx, userID)
}
