package repository

import (
	"context"
	"time"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/domain"
)

// PollRepository is the persistence boundary for polls, options and votes.
// Lookups return (nil, nil) when no row exists.
type PollRepository interface {
	// Create stores a poll and its options in a single transaction.
	Create(ctx context.Context, poll *domain.Poll, options []*domain.Option) error
	GetByID(ctx context.Context, id string) (*domain.Poll, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Poll, error)
	ListOptions(ctx context.Context, pollID string) ([]*domain.Option, error)
	// RecordVote inserts the vote and increments the option counter in one
	// transaction. It returns domain.ErrPollNotFound, domain.ErrPollClosed,
	// domain.ErrOptionNotFound or domain.ErrDuplicateVote when the vote
	// cannot be recorded.
	RecordVote(ctx context.Context, pollID, optionID, userID string, at time.Time) error
	SetStatus(ctx context.Context, pollID string, status domain.Status, at time.Time) error
}
