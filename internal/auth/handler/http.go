// Package handler exposes authentication over HTTP/JSON: admin bootstrap,
// role-gated registration, and login.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/auth/service"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/platform/rbac"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/security"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/server/middleware"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

type Handler struct {
	auth  *service.AuthService
	authz *rbac.Authorizer
}

func NewHandler(auth *service.AuthService, authz *rbac.Authorizer) *Handler {
	return &Handler{auth: auth, authz: authz}
}

// Routes mounts the auth endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/init-admin", h.initAdmin)
	r.Post("/register-user", h.registerUser)
	r.Post("/register-manager", h.registerManager)
	r.Post("/register-admin", h.registerAdmin)
	r.Post("/login", h.login)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type authResponse struct {
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expiresAt"`
	UserID    string               `json:"userId"`
	Email     string               `json:"email"`
	Roles     []security.RoleClaim `json:"roles"`
}

func (h *Handler) initAdmin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		middleware.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.auth.InitAdmin(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	middleware.JSON(w, http.StatusCreated, toAuthResponse(res))
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, userdomain.RoleUser)
}

// registerManager requires an admin or manager caller.
func (h *Handler) registerManager(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authz.Require(r.Context(), userdomain.RoleManager, ""); err != nil {
		writeAuthzError(w, err)
		return
	}
	h.register(w, r, userdomain.RoleManager)
}

// registerAdmin requires an admin caller.
func (h *Handler) registerAdmin(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authz.Require(r.Context(), userdomain.RoleAdmin, ""); err != nil {
		writeAuthzError(w, err)
		return
	}
	h.register(w, r, userdomain.RoleAdmin)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, role userdomain.Role) {
	var req credentialsRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		middleware.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name, role)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	middleware.JSON(w, http.StatusCreated, toAuthResponse(res))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		middleware.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, toAuthResponse(res))
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAdminExists):
		middleware.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		middleware.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrValidation):
		middleware.Error(w, http.StatusBadRequest, err.Error())
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

func toAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		UserID:    res.UserID,
		Email:     res.Email,
		Roles:     res.Roles,
	}
}
