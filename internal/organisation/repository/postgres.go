package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/domain"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organisation repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orgColumns = `id, name, owner_id, join_code, join_code_rotated_at, created_at`

// GetByID returns the organisation for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Organisation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organisations WHERE id = $1`, id)
	return scanOrg(row)
}

// GetByJoinCode returns the organisation holding the given active join code, or nil if none.
func (r *PostgresRepository) GetByJoinCode(ctx context.Context, code string) (*domain.Organisation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organisations WHERE join_code = $1`, code)
	return scanOrg(row)
}

// Create persists the organisation and its owner membership in one
// transaction, so a failed membership insert cannot leave an organisation
// without its owner as a member.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Organisation, owner *domain.Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO organisations (id, name, owner_id, join_code, join_code_rotated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.Name, o.OwnerID, o.JoinCode, o.JoinCodeRotatedAt, o.CreatedAt)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO organisation_members (org_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
	`, owner.OrgID, owner.UserID, string(owner.Role), owner.JoinedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateJoinCode replaces the organisation's join code.
func (r *PostgresRepository) UpdateJoinCode(ctx context.Context, orgID, code string, rotatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE organisations SET join_code = $2, join_code_rotated_at = $3 WHERE id = $1
	`, orgID, code, rotatedAt)
	return err
}

// AddMember persists the membership. A collision with the membership primary
// key reports domain.ErrDuplicateMember so concurrent joins surface as a
// duplicate rather than a raw constraint error.
func (r *PostgresRepository) AddMember(ctx context.Context, m *domain.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organisation_members (org_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
	`, m.OrgID, m.UserID, string(m.Role), m.JoinedAt)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateMember
	}
	return err
}

// GetMember returns the membership for (orgID, userID), or nil if not a member.
func (r *PostgresRepository) GetMember(ctx context.Context, orgID, userID string) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT org_id, user_id, role, joined_at
		FROM organisation_members WHERE org_id = $1 AND user_id = $2
	`, orgID, userID)
	m := &domain.Member{}
	var role string
	err := row.Scan(&m.OrgID, &m.UserID, &role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Role = userdomain.Role(role)
	return m, nil
}

// ListMembers returns the organisation's members, oldest first.
func (r *PostgresRepository) ListMembers(ctx context.Context, orgID string) ([]*domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT org_id, user_id, role, joined_at
		FROM organisation_members WHERE org_id = $1
		ORDER BY joined_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Member
	for rows.Next() {
		m := &domain.Member{}
		var role string
		if err := rows.Scan(&m.OrgID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = userdomain.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListByMember returns organisations the user belongs to, oldest first.
func (r *PostgresRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Organisation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.name, o.owner_id, o.join_code, o.join_code_rotated_at, o.created_at
		FROM organisations o
		JOIN organisation_members m ON m.org_id = o.id
		WHERE m.user_id = $1
		ORDER BY m.joined_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Organisation
	for rows.Next() {
		o := &domain.Organisation{}
		if err := rows.Scan(&o.ID, &o.Name, &o.OwnerID, &o.JoinCode, &o.JoinCodeRotatedAt, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func scanOrg(row *sql.Row) (*domain.Organisation, error) {
	o := &domain.Organisation{}
	err := row.Scan(&o.ID, &o.Name, &o.OwnerID, &o.JoinCode, &o.JoinCodeRotatedAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}
