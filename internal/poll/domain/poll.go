package domain

import (
	"errors"
	"time"
)

// Domain errors shared by the repository (transactional vote path) and the
// service; the handler maps them to HTTP status codes.
var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrPollClosed     = errors.New("poll is closed")
	ErrDuplicateVote  = errors.New("user has already voted on this poll")
)

// Poll is a question with fixed options, scoped to an organisation.
// Status toggles between open and closed; closing freezes further votes and
// reopening accepts them again.
type Poll struct {
	ID        string
	OrgID     string
	Question  string
	Status    Status
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Validate validates the poll for persistence. Returns an error describing the first validation failure.
func (p *Poll) Validate() error {
	if p.OrgID == "" {
		return errors.New("organisation is required")
	}
	if p.Question == "" {
		return errors.New("question is required")
	}
	if p.Status == "" {
		p.Status = StatusOpen
	}
	return nil
}

// Option is one votable answer with its running tally.
type Option struct {
	ID        string
	PollID    string
	Position  int
	Text      string
	VoteCount int
}

// Vote records that a user voted for an option; at most one per (poll, user).
type Vote struct {
	PollID    string
	OptionID  string
	UserID    string
	CreatedAt time.Time
}
