package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/security"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

// Sentinel errors for the auth service; the handler maps them to HTTP status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAdminExists            = errors.New("an admin account already exists")

	// ErrValidation wraps email/password/role validation failures.
	ErrValidation = errors.New("validation failed")
)

// AuthResult holds the outcome of InitAdmin, Register, or Login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	UserID    string
	Email     string
	Roles     []security.RoleClaim
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	CreateWithRole(ctx context.Context, u *userdomain.User, ra *userdomain.RoleAssignment) error
	CreateFirstAdmin(ctx context.Context, u *userdomain.User, ra *userdomain.RoleAssignment) error
	ListRoleAssignments(ctx context.Context, userID string) ([]*userdomain.RoleAssignment, error)
	CountByRole(ctx context.Context, role userdomain.Role) (int, error)
}

// AuthService implements bootstrap admin creation, role-tagged registration, and login.
type AuthService struct {
	userRepo UserRepo
	hasher   *security.Hasher
	tokens   *security.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(userRepo UserRepo, hasher *security.Hasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// InitAdmin creates the one-time bootstrap admin account. It succeeds at most
// once globally: if any admin role assignment exists it returns ErrAdminExists.
// The count here is a fast path only; the repository enforces the at-most-once
// guarantee inside the create transaction, so concurrent bootstraps cannot
// both win.
func (s *AuthService) InitAdmin(ctx context.Context, email, password, name string) (*AuthResult, error) {
	admins, err := s.userRepo.CountByRole(ctx, userdomain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if admins > 0 {
		return nil, ErrAdminExists
	}
	return s.register(ctx, email, password, name, userdomain.RoleAdmin, true)
}

// Register creates a user with the given global role and returns a signed token.
// Validates email format and password strength; duplicate emails are rejected
// regardless of the role being registered.
func (s *AuthService) Register(ctx context.Context, email, password, name string, role userdomain.Role) (*AuthResult, error) {
	return s.register(ctx, email, password, name, role, false)
}

func (s *AuthService) register(ctx context.Context, email, password, name string, role userdomain.Role, bootstrap bool) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	assignment := &userdomain.RoleAssignment{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Role:      role,
		CreatedAt: now,
	}
	if bootstrap {
		err = s.userRepo.CreateFirstAdmin(ctx, user, assignment)
		if errors.Is(err, userdomain.ErrAdminExists) {
			return nil, ErrAdminExists
		}
	} else {
		err = s.userRepo.CreateWithRole(ctx, user, assignment)
	}
	if err != nil {
		return nil, err
	}
	roles := []security.RoleClaim{{Role: string(role)}}
	token, expiresAt, err := s.tokens.IssueAccess(user.ID, user.Email, roles)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Email:     user.Email,
		Roles:     roles,
	}, nil
}

// Login authenticates with email/password and returns a fresh token embedding
// the user's current role set. Missing user, wrong password, and disabled user
// all report ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != userdomain.UserStatusActive {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	assignments, err := s.userRepo.ListRoleAssignments(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	roles := RoleClaims(assignments)
	token, expiresAt, err := s.tokens.IssueAccess(user.ID, user.Email, roles)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Email:     user.Email,
		Roles:     roles,
	}, nil
}

// RoleClaims converts role assignments to the token claim form.
func RoleClaims(assignments []*userdomain.RoleAssignment) []security.RoleClaim {
	out := make([]security.RoleClaim, 0, len(assignments))
	for _, ra := range assignments {
		out = append(out, security.RoleClaim{OrgID: ra.OrgID, Role: string(ra.Role)})
	}
	return out
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	if !hasSymbol {
		return errors.New("password must contain at least one symbol")
	}
	return nil
}
