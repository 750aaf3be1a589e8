package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	orgdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/domain"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/domain"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

var (
	ErrOrgNotFound      = errors.New("organisation not found")
	ErrNotMember        = errors.New("user is not a member of this organisation")
	ErrNotManager       = errors.New("user does not manage this organisation")
	ErrQuestionRequired = errors.New("question is required")
	ErrTooFewOptions    = errors.New("a poll needs at least two options")
)

// PollRepo is the subset of the poll repository the service depends on.
type PollRepo interface {
	Create(ctx context.Context, poll *domain.Poll, options []*domain.Option) error
	GetByID(ctx context.Context, id string) (*domain.Poll, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Poll, error)
	ListOptions(ctx context.Context, pollID string) ([]*domain.Option, error)
	RecordVote(ctx context.Context, pollID, optionID, userID string, at time.Time) error
	SetStatus(ctx context.Context, pollID string, status domain.Status, at time.Time) error
}

// OrgRepo resolves organisations and memberships for access checks.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Organisation, error)
	GetMember(ctx context.Context, orgID, userID string) (*orgdomain.Member, error)
}

type Service struct {
	polls PollRepo
	orgs  OrgRepo
}

func NewService(polls PollRepo, orgs OrgRepo) *Service {
	return &Service{polls: polls, orgs: orgs}
}

// PollWithResults bundles a poll with its options and tallies.
type PollWithResults struct {
	Poll    *domain.Poll
	Options []*domain.Option
}

// Create opens a new poll in the organisation. The actor must manage the
// organisation (manager membership) or hold the admin role.
func (s *Service) Create(ctx context.Context, actorID string, actorIsAdmin bool, orgID, question string, options []string) (*PollWithResults, error) {
	if err := s.requireManager(ctx, actorID, orgID, actorIsAdmin); err != nil {
		return nil, err
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrQuestionRequired
	}
	var texts []string
	for _, o := range options {
		if t := strings.TrimSpace(o); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) < 2 {
		return nil, ErrTooFewOptions
	}

	now := time.Now().UTC()
	poll := &domain.Poll{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Question:  question,
		Status:    domain.StatusOpen,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	opts := make([]*domain.Option, 0, len(texts))
	for i, t := range texts {
		opts = append(opts, &domain.Option{
			ID:       uuid.New().String(),
			PollID:   poll.ID,
			Position: i,
			Text:     t,
		})
	}
	if err := s.polls.Create(ctx, poll, opts); err != nil {
		return nil, err
	}
	return &PollWithResults{Poll: poll, Options: opts}, nil
}

// ListByOrg returns the organisation's polls. The actor must be a member or an admin.
func (s *Service) ListByOrg(ctx context.Context, actorID string, actorIsAdmin bool, orgID string) ([]*domain.Poll, error) {
	if err := s.requireMember(ctx, actorID, orgID, actorIsAdmin); err != nil {
		return nil, err
	}
	return s.polls.ListByOrg(ctx, orgID)
}

// Get returns the poll with its options and current tallies. The actor must
// be a member of the poll's organisation or an admin.
func (s *Service) Get(ctx context.Context, actorID string, actorIsAdmin bool, pollID string) (*PollWithResults, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return nil, domain.ErrPollNotFound
	}
	if err := s.requireMember(ctx, actorID, poll.OrgID, actorIsAdmin); err != nil {
		return nil, err
	}
	options, err := s.polls.ListOptions(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return &PollWithResults{Poll: poll, Options: options}, nil
}

// Vote records the actor's vote for one option. Voting requires membership of
// the poll's organisation; each user votes at most once per poll.
func (s *Service) Vote(ctx context.Context, actorID, pollID, optionID string) error {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return err
	}
	if poll == nil {
		return domain.ErrPollNotFound
	}
	member, err := s.orgs.GetMember(ctx, poll.OrgID, actorID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotMember
	}
	return s.polls.RecordVote(ctx, pollID, optionID, actorID, time.Now().UTC())
}

// Close stops the poll from accepting votes. Allowed for the poll's creator,
// a manager of its organisation, or an admin. Closing a closed poll is a no-op.
func (s *Service) Close(ctx context.Context, actorID string, actorIsAdmin bool, pollID string) (*domain.Poll, error) {
	return s.setStatus(ctx, actorID, actorIsAdmin, pollID, domain.StatusClosed)
}

// Open reopens a closed poll so it accepts votes again.
func (s *Service) Open(ctx context.Context, actorID string, actorIsAdmin bool, pollID string) (*domain.Poll, error) {
	return s.setStatus(ctx, actorID, actorIsAdmin, pollID, domain.StatusOpen)
}

func (s *Service) setStatus(ctx context.Context, actorID string, actorIsAdmin bool, pollID string, status domain.Status) (*domain.Poll, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return nil, domain.ErrPollNotFound
	}
	if poll.CreatedBy != actorID {
		if err := s.requireManager(ctx, actorID, poll.OrgID, actorIsAdmin); err != nil {
			return nil, err
		}
	}
	if poll.Status == status {
		return poll, nil
	}
	now := time.Now().UTC()
	if err := s.polls.SetStatus(ctx, pollID, status, now); err != nil {
		return nil, err
	}
	poll.Status = status
	poll.UpdatedAt = now
	return poll, nil
}

func (s *Service) requireMember(ctx context.Context, userID, orgID string, isAdmin bool) error {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	if org == nil {
		return ErrOrgNotFound
	}
	if isAdmin {
		return nil
	}
	member, err := s.orgs.GetMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotMember
	}
	return nil
}

func (s *Service) requireManager(ctx context.Context, userID, orgID string, isAdmin bool) error {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	if org == nil {
		return ErrOrgNotFound
	}
	if isAdmin {
		return nil
	}
	member, err := s.orgs.GetMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotMember
	}
	if member.Role != userdomain.RoleManager {
		return ErrNotManager
	}
	return nil
}
