// Package handler exposes the poll lifecycle over HTTP/JSON: create, list,
// vote, results, close and reopen.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/platform/rbac"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/domain"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/service"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/server/middleware"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

type Handler struct {
	polls *service.Service
	authz *rbac.Authorizer
}

func NewHandler(polls *service.Service, authz *rbac.Authorizer) *Handler {
	return &Handler{polls: polls, authz: authz}
}

// Routes mounts the poll endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/create-poll", h.create)
	r.Get("/get-polls/{orgId}", h.listByOrg)
	r.Post("/vote/{pollId}", h.vote)
	r.Get("/get-poll-results/{pollId}", h.results)
	r.Post("/close/{pollId}", h.close)
	r.Post("/open/{pollId}", h.open)
}

type pollResponse struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	Question  string    `json:"question"`
	Status    string    `json:"status"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type optionResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int    `json:"voteCount"`
}

type resultsResponse struct {
	Poll       pollResponse     `json:"poll"`
	Options    []optionResponse `json:"options"`
	TotalVotes int              `json:"totalVotes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, err := h.authz.Require(r.Context(), userdomain.RoleUser, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	var req struct {
		OrgID    string   `json:"orgId"`
		Question string   `json:"question"`
		Options  []string `json:"options"`
	}
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		middleware.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.polls.Create(r.Context(), p.UserID, h.isAdmin(r, p), req.OrgID, req.Question, req.Options)
	if err != nil {
		writePollError(w, err)
		return
	}
	middleware.JSON(w, http.StatusCreated, toResultsResponse(res))
}

func (h *Handler) listByOrg(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgId")
	p, err := h.authz.Require(r.Context(), userdomain.RoleUser, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	polls, err := h.polls.ListByOrg(r.Context(), p.UserID, h.isAdmin(r, p), orgID)
	if err != nil {
		writePollError(w, err)
		return
	}
	out := make([]pollResponse, 0, len(polls))
	for _, poll := range polls {
		out = append(out, toPollResponse(poll))
	}
	middleware.JSON(w, http.StatusOK, out)
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "pollId")
	p, err := h.authz.Require(r.Context(), userdomain.RoleUser, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	var req struct {
		OptionID string `json:"optionId"`
	}
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		middleware.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.polls.Vote(r.Context(), p.UserID, pollID, req.OptionID); err != nil {
		writePollError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, map[string]string{"status": "vote recorded"})
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "pollId")
	p, err := h.authz.Require(r.Context(), userdomain.RoleUser, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	res, err := h.polls.Get(r.Context(), p.UserID, h.isAdmin(r, p), pollID)
	if err != nil {
		writePollError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, toResultsResponse(res))
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.polls.Close)
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.polls.Open)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID string, actorIsAdmin bool, pollID string) (*domain.Poll, error)) {
	pollID := chi.URLParam(r, "pollId")
	p, err := h.authz.Require(r.Context(), userdomain.RoleUser, "")
	if err != nil {
		writeAuthzError(w, err)
		return
	}
	poll, err := op(r.Context(), p.UserID, h.isAdmin(r, p), pollID)
	if err != nil {
		writePollError(w, err)
		return
	}
	middleware.JSON(w, http.StatusOK, toPollResponse(poll))
}

func (h *Handler) isAdmin(r *http.Request, p middleware.Principal) bool {
	ok, err := h.authz.Allow(r.Context(), p.Roles, userdomain.RoleAdmin, "")
	return err == nil && ok
}

func writePollError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPollNotFound),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, service.ErrOrgNotFound):
		middleware.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPollClosed),
		errors.Is(err, domain.ErrDuplicateVote),
		errors.Is(err, service.ErrQuestionRequired),
		errors.Is(err, service.ErrTooFewOptions):
		middleware.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrNotManager):
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

func toPollResponse(p *domain.Poll) pollResponse {
	return pollResponse{
		ID:        p.ID,
		OrgID:     p.OrgID,
		Question:  p.Question,
		Status:    string(p.Status),
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toResultsResponse(res *service.PollWithResults) resultsResponse {
	out := resultsResponse{
		Poll:    toPollResponse(res.Poll),
		Options: make([]optionResponse, 0, len(res.Options)),
	}
	for _, o := range res.Options {
		out.Options = append(out.Options, optionResponse{ID: o.ID, Text: o.Text, VoteCount: o.VoteCount})
		out.TotalVotes += o.VoteCount
	}
	return out
}
