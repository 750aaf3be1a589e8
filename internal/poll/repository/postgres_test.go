package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

// Voting on an unknown option trips the votes foreign key before the counter
// update runs, so RecordVote has to recognise code 23503 as well as 23505.
func TestConstraintViolationClassification(t *testing.T) {
	dup := fmt.Errorf("insert vote: %w", &pgconn.PgError{Code: pgUniqueViolation})
	if !isUniqueViolation(dup) {
		t.Error("unique violation not classified")
	}
	if isForeignKeyViolation(dup) {
		t.Error("unique violation misclassified as foreign key violation")
	}

	fk := fmt.Errorf("insert vote: %w", &pgconn.PgError{Code: pgForeignKeyViolation})
	if !isForeignKeyViolation(fk) {
		t.Error("foreign key violation not classified")
	}
	if isUniqueViolation(fk) {
		t.Error("foreign key violation misclassified as unique violation")
	}

	plain := errors.New("connection reset")
	if isUniqueViolation(plain) || isForeignKeyViolation(plain) {
		t.Error("plain error classified as constraint violation")
	}
	if isUniqueViolation(nil) || isForeignKeyViolation(nil) {
		t.Error("nil error classified as constraint violation")
	}
}
