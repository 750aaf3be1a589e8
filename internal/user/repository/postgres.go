package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, status, created_at, updated_at
		FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, status, created_at, updated_at
		FROM users WHERE email = $1
	`, email)
	return scanUser(row)
}

// CreateWithRole persists the user and their role assignment in one
// transaction. A failed assignment insert rolls back the user row, so a
// retry with the same email is not blocked by a half-created account.
func (r *PostgresRepository) CreateWithRole(ctx context.Context, u *domain.User, ra *domain.RoleAssignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertUser(ctx, tx, u); err != nil {
		return err
	}
	if err := insertRoleAssignment(ctx, tx, ra); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateFirstAdmin persists the bootstrap admin user and assignment, failing
// with domain.ErrAdminExists if any admin assignment already exists. The
// advisory lock serialises concurrent bootstrap attempts so exactly one wins.
func (r *PostgresRepository) CreateFirstAdmin(ctx context.Context, u *domain.User, ra *domain.RoleAssignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('bootstrap_admin'))`); err != nil {
		return err
	}
	var admins int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM role_assignments WHERE role = $1
	`, string(domain.RoleAdmin)).Scan(&admins)
	if err != nil {
		return err
	}
	if admins > 0 {
		return domain.ErrAdminExists
	}
	if err := insertUser(ctx, tx, u); err != nil {
		return err
	}
	if err := insertRoleAssignment(ctx, tx, ra); err != nil {
		return err
	}
	return tx.Commit()
}

// ListRoleAssignments returns all role assignments for the user, oldest first.
func (r *PostgresRepository) ListRoleAssignments(ctx context.Context, userID string) ([]*domain.RoleAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, COALESCE(org_id, ''), role, created_at
		FROM role_assignments WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RoleAssignment
	for rows.Next() {
		ra := &domain.RoleAssignment{}
		var role string
		if err := rows.Scan(&ra.ID, &ra.UserID, &ra.OrgID, &role, &ra.CreatedAt); err != nil {
			return nil, err
		}
		ra.Role = domain.Role(role)
		out = append(out, ra)
	}
	return out, rows.Err()
}

func insertUser(ctx context.Context, tx *sql.Tx, u *domain.User) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Email, u.Name, u.PasswordHash, string(u.Status), u.CreatedAt, u.UpdatedAt)
	return err
}

// OrgID empty is stored as NULL (global scope).
func insertRoleAssignment(ctx context.Context, tx *sql.Tx, ra *domain.RoleAssignment) error {
	orgID := sql.NullString{String: ra.OrgID, Valid: ra.OrgID != ""}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO role_assignments (id, user_id, org_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ra.ID, ra.UserID, orgID, string(ra.Role), ra.CreatedAt)
	return err
}

// CountByRole returns how many users hold the given role in any scope.
func (r *PostgresRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_id) FROM role_assignments WHERE role = $1
	`, string(role)).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	u := &domain.User{}
	var status string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Status = domain.UserStatus(status)
	return u, nil
}
