package repository

import (
	"context"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/audit/domain"
)

// Repository defines persistence for audit log entries.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListRecent returns the most recent audit logs, newest first.
	ListRecent(ctx context.Context, limit, offset int) ([]*domain.AuditLog, error)
}
