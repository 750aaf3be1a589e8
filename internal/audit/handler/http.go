package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/audit/repository"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/platform/rbac"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/server/middleware"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

const defaultPageSize = 50

// Handler serves the audit trail to admins.
type Handler struct {
	repo  repository.Repository
	authz *rbac.Authorizer
}

func NewHandler(repo repository.Repository, authz *rbac.Authorizer) *Handler {
	return &Handler{repo: repo, authz: authz}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

type entryResponse struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId,omitempty"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authz.Require(r.Context(), userdomain.RoleAdmin, ""); err != nil {
		switch {
		case errors.Is(err, rbac.ErrUnauthenticated):
			middleware.Error(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, rbac.ErrForbidden):
			middleware.Error(w, http.StatusForbidden, err.Error())
		default:
			middleware.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	limit := queryInt(r, "limit", defaultPageSize)
	if limit < 1 || limit > 500 {
		limit = defaultPageSize
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := h.repo.ListRecent(r.Context(), limit, offset)
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:        e.ID,
			OrgID:     e.OrgID,
			UserID:    e.UserID,
			Action:    e.Action,
			Resource:  e.Resource,
			IP:        e.IP,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	middleware.JSON(w, http.StatusOK, out)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
