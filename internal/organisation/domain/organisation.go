package domain

import (
	"errors"
	"time"

	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

// Organisation is a tenant owning polls. It carries a single active join
// code; regenerating the code replaces the prior one.
type Organisation struct {
	ID                string
	Name              string
	OwnerID           string
	JoinCode          string
	JoinCodeRotatedAt time.Time
	CreatedAt         time.Time
}

// Validate validates the organisation for persistence. Returns an error describing the first validation failure.
func (o *Organisation) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.OwnerID == "" {
		return errors.New("owner is required")
	}
	if o.JoinCode == "" {
		return errors.New("join code is required")
	}
	return nil
}

// ErrDuplicateMember reports a membership insert that collided with an
// existing row for the same organisation and user.
var ErrDuplicateMember = errors.New("membership already exists")

// Member links a user to an organisation with a membership role.
type Member struct {
	OrgID    string
	UserID   string
	Role     userdomain.Role
	JoinedAt time.Time
}
