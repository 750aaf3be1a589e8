// Package handler exposes organisation management over HTTP/JSON.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/domain"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/service"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/platform/rbac"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/server/middleware"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

type Handler struct {
	orgs  *service.Service
	authz *rbac.Authorizer
}

func NewHandler(orgs *service.Service, authz *rbac.Authorizer) *Handler {
	return &Handler{orgs: orgs, authz: authz}
}

// Routes mounts the organisation endpoints on r. All of them require an
// authenticated caller.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/create-organisation", h.create)
	r.Post("/join-organisation", h.join)
	r.Post("/generate-join-code/{id}", h.generateJoinCode)
	r.Get("/mine", h.listMine)
	r.Get("/{id}", h.get)
	r.Get("/{id}/members", h.listMembers)
}

type orgResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	JoinCode  string    `json:"joinCode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type memberResponse struct {
	UserID   string    `json:"userId"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// create requires the manager role; the caller becomes the owning manager.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, err := h.authz.Require(r.Context(), userdomain.RoleManager, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		middleware.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	org, err := h.orgs.Create(r.Context(), p.UserID, req.Name)
	if err != nil {
		writeOrgError(w, err)
		return
	}
	middleware.JSON(w, http.StatusCreated, toOrgResponse(org, true))
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	p, err := h.authz.Require(r.Context(), userdomain.RoleUser, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	var req struct {
		JoinCode string `json:"joinCode"`
	}
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		middleware.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	org, err := h.orgs.Join(r.Context(), p.UserID, req.JoinCode)
	if err != nil {
		writeOrgError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, toOrgResponse(org, false))
}

func (h *Handler) generateJoinCode(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "id")
	p, err := h.authz.Require(r.Context(), userdomain.RoleUser, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	code, err := h.orgs.GenerateJoinCode(r.Context(), p.UserID, orgID, h.isAdmin(r, p))
	if err != nil {
		writeOrgError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, map[string]string{"joinCode": code})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	p, err := h.authz.Require(r.Context(), userdomain.RoleUser, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	orgs, err := h.orgs.ListMine(r.Context(), p.UserID)
	if err != nil {
		writeOrgError(w, err)
		return
	}
	out := make([]orgResponse, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, toOrgResponse(o, o.OwnerID == p.UserID))
	}
	middleware.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "id")
	p, err := h.authz.Require(r.Context(), userdomain.RoleUser, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	org, err := h.orgs.Get(r.Context(), p.UserID, orgID, h.isAdmin(r, p))
	if err != nil {
		writeOrgError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, toOrgResponse(org, org.OwnerID == p.UserID))
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "id")
	p, err := h.authz.Require(r.Context(), userdomain.RoleUser, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	members, err := h.orgs.ListMembers(r.Context(), p.UserID, orgID, h.isAdmin(r, p))
	if err != nil {
		writeOrgError(w, err)
		return
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{UserID: m.UserID, Role: string(m.Role), JoinedAt: m.JoinedAt})
	}
	middleware.JSON(w, http.StatusOK, out)
}

func (h *Handler) isAdmin(r *http.Request, p middleware.Principal) bool {
	ok, err := h.authz.Allow(r.Context(), p.Roles, userdomain.RoleAdmin, "")
	return err == nil && ok
}

func writeOrgError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOrgNotFound), errors.Is(err, service.ErrInvalidJoinCode):
		middleware.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyMember), errors.Is(err, service.ErrNameRequired):
		middleware.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrNotOwner):
		middleware.Error(w, http.StatusForbidden, err.Error())
	default:
		middleware.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func writeAuthzError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rbac.ErrUnauthenticated):
		middleware.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, rbac.ErrForbidden):
		middleware.Error(w, http.StatusForbidden, err.Error())
	default:
		middleware.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// toOrgResponse hides the join code from non-owners.
func toOrgResponse(o *domain.Organisation, includeCode bool) orgResponse {
	resp := orgResponse{
		ID:        o.ID,
		Name:      o.Name,
		OwnerID:   o.OwnerID,
		CreatedAt: o.CreatedAt,
	}
	if includeCode {
		resp.JoinCode = o.JoinCode
	}
	return resp
}
