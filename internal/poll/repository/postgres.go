package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a poll repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const pollColumns = `id, org_id, question, status, created_by, created_at, updated_at`

// Create persists the poll and its options in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Poll, options []*domain.Option) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO polls (id, org_id, question, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.OrgID, p.Question, string(p.Status), p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	for _, opt := range options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO poll_options (id, poll_id, position, text, vote_count)
			VALUES ($1, $2, $3, $4, 0)
		`, opt.ID, opt.PollID, opt.Position, opt.Text)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID returns the poll for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Poll, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM polls WHERE id = $1`, id)
	return scanPoll(row)
}

// ListByOrg returns the organisation's polls, newest first.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Poll, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+pollColumns+` FROM polls WHERE org_id = $1 ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

// ListOptions returns the poll's options ordered by position.
func (r *PostgresRepository) ListOptions(ctx context.Context, pollID string) ([]*domain.Option, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, poll_id, position, text, vote_count
		FROM poll_options WHERE poll_id = $1 ORDER BY position
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []*domain.Option
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.PollID, &o.Position, &o.Text, &o.VoteCount); err != nil {
			return nil, err
		}
		options = append(options, &o)
	}
	return options, rows.Err()
}

// RecordVote inserts the vote and increments the option counter atomically.
// The poll row is locked for the duration of the transaction so the status
// check and the counter update cannot race a concurrent close.
func (r *PostgresRepository) RecordVote(ctx context.Context, pollID, optionID, userID string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM polls WHERE id = $1 FOR UPDATE`, pollID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrPollNotFound
	}
	if err != nil {
		return err
	}
	if domain.Status(status) != domain.StatusOpen {
		return domain.ErrPollClosed
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO votes (poll_id, option_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, pollID, optionID, userID, at)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateVote
	}
	// The poll row is locked above and users are never deleted, so a foreign
	// key failure on this insert means the option id is unknown.
	if isForeignKeyViolation(err) {
		return domain.ErrOptionNotFound
	}
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE poll_options SET vote_count = vote_count + 1 WHERE id = $1 AND poll_id = $2
	`, optionID, pollID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrOptionNotFound
	}
	return tx.Commit()
}

// SetStatus updates the poll's open/closed status.
func (r *PostgresRepository) SetStatus(ctx context.Context, pollID string, status domain.Status, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE polls SET status = $2, updated_at = $3 WHERE id = $1
	`, pollID, string(status), at)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (*domain.Poll, error) {
	var p domain.Poll
	var status string
	err := row.Scan(&p.ID, &p.OrgID, &p.Question, &status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Status = domain.Status(status)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	return hasPgCode(err, pgUniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasPgCode(err, pgForeignKeyViolation)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
