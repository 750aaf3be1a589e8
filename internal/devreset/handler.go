// Package devreset wipes all application data. It exists for local
// development and automated test setups and is only mounted when
// ALLOW_RESET is enabled, which the config layer refuses in production.
package devreset

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/server/middleware"
)

// Tables emptied by a reset, in one statement so foreign keys cannot get in
// the way.
var resetTables = []string{
	"audit_logs",
	"votes",
	"poll_options",
	"polls",
	"organisation_members",
	"organisations",
	"role_assignments",
	"users",
}

type Handler struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewHandler(db *sql.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// Reset truncates every application table.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	stmt := "TRUNCATE TABLE "
	for i, t := range resetTables {
		if i > 0 {
			stmt += ", "
		}
		stmt += t
	}
	stmt += " CASCADE"

	if _, err := h.db.ExecContext(r.Context(), stmt); err != nil {
		h.logger.Error("reset failed", "error", err)
		middleware.Error(w, http.StatusInternalServerError, "reset failed")
		return
	}
	h.logger.Warn("all application data wiped", "remote", r.RemoteAddr)
	middleware.JSON(w, http.StatusOK, map[string]string{"status": "reset complete"})
}
