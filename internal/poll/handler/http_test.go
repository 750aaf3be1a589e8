package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	orgdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/domain"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/platform/rbac"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/domain"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/service"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/security"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/server/middleware"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

type memPollRepo struct {
	mu      sync.Mutex
	polls   map[string]*domain.Poll
	options map[string][]*domain.Option
	votes   map[string]map[string]bool
}

func newMemPollRepo() *memPollRepo {
	return &memPollRepo{
		polls:   make(map[string]*domain.Poll),
		options: make(map[string][]*domain.Option),
		votes:   make(map[string]map[string]bool),
	}
}

func (m *memPollRepo) Create(_ context.Context, p *domain.Poll, options []*domain.Option) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.polls[p.ID] = &cp
	for _, o := range options {
		oc := *o
		m.options[p.ID] = append(m.options[p.ID], &oc)
	}
	return nil
}

func (m *memPollRepo) GetByID(_ context.Context, id string) (*domain.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPollRepo) ListByOrg(_ context.Context, orgID string) ([]*domain.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Poll
	for _, p := range m.polls {
		if p.OrgID == orgID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPollRepo) ListOptions(_ context.Context, pollID string) ([]*domain.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Option
	for _, o := range m.options[pollID] {
		oc := *o
		out = append(out, &oc)
	}
	return out, nil
}

func (m *memPollRepo) RecordVote(_ context.Context, pollID, optionID, userID string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[pollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	if p.Status != domain.StatusOpen {
		return domain.ErrPollClosed
	}
	if m.votes[pollID][userID] {
		return domain.ErrDuplicateVote
	}
	for _, o := range m.options[pollID] {
		if o.ID == optionID {
			if m.votes[pollID] == nil {
				m.votes[pollID] = make(map[string]bool)
			}
			m.votes[pollID][userID] = true
			o.VoteCount++
			return nil
		}
	}
	return domain.ErrOptionNotFound
}

func (m *memPollRepo) SetStatus(_ context.Context, pollID string, status domain.Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[pollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	p.Status = status
	p.UpdatedAt = at
	return nil
}

type memOrgReader struct {
	orgs    map[string]bool
	members map[string]map[string]userdomain.Role
}

func (m *memOrgReader) GetByID(_ context.Context, id string) (*orgdomain.Organisation, error) {
	if !m.orgs[id] {
		return nil, nil
	}
	return &orgdomain.Organisation{ID: id, Name: id}, nil
}

func (m *memOrgReader) GetMember(_ context.Context, orgID, userID string) (*orgdomain.Member, error) {
	role, ok := m.members[orgID][userID]
	if !ok {
		return nil, nil
	}
	return &orgdomain.Member{OrgID: orgID, UserID: userID, Role: role}, nil
}

type fixture struct {
	router *chi.Mux
	tokens *security.TokenProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orgs := &memOrgReader{
		orgs: map[string]bool{"org-1": true},
		members: map[string]map[string]userdomain.Role{
			"org-1": {
				"mgr-1":  userdomain.RoleManager,
				"user-1": userdomain.RoleUser,
			},
		},
	}
	svc := service.NewService(newMemPollRepo(), orgs)
	authz, err := rbac.NewAuthorizer()
	if err != nil {
		t.Fatalf("authorizer: %v", err)
	}
	tokens := security.NewTestTokenProvider()

	r := chi.NewRouter()
	r.Use(middleware.Authenticate(tokens))
	r.Route("/api/polls", NewHandler(svc, authz).Routes)
	return &fixture{router: r, tokens: tokens}
}

func (f *fixture) tokenFor(t *testing.T, userID, role string) string {
	t.Helper()
	token, _, err := f.tokens.IssueAccess(userID, userID+"@x.com", []security.RoleClaim{{Role: role}})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) createPoll(t *testing.T) resultsResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/polls/create-poll", f.tokenFor(t, "mgr-1", "manager"), map[string]any{
		"orgId":    "org-1",
		"question": "Lunch venue?",
		"options":  []string{"Cafe", "Deli"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out resultsResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestCreateAndVoteOverHTTP(t *testing.T) {
	f := newFixture(t)
	created := f.createPoll(t)
	userToken := f.tokenFor(t, "user-1", "user")

	rec := f.do(t, http.MethodPost, "/api/polls/vote/"+created.Poll.ID, userToken, map[string]string{
		"optionId": created.Options[0].ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("vote status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Second vote by the same user is rejected.
	rec = f.do(t, http.MethodPost, "/api/polls/vote/"+created.Poll.ID, userToken, map[string]string{
		"optionId": created.Options[0].ID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate vote status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/polls/get-poll-results/"+created.Poll.ID, userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("results status = %d", rec.Code)
	}
	var results resultsResponse
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if results.TotalVotes != 1 {
		t.Fatalf("totalVotes = %d, want 1", results.TotalVotes)
	}
}

func TestVoteErrorsOverHTTP(t *testing.T) {
	f := newFixture(t)
	created := f.createPoll(t)
	userToken := f.tokenFor(t, "user-1", "user")

	// Anonymous.
	rec := f.do(t, http.MethodPost, "/api/polls/vote/"+created.Poll.ID, "", map[string]string{
		"optionId": created.Options[0].ID,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous vote status = %d, want 401", rec.Code)
	}

	// Non-member.
	rec = f.do(t, http.MethodPost, "/api/polls/vote/"+created.Poll.ID, f.tokenFor(t, "outsider", "user"), map[string]string{
		"optionId": created.Options[0].ID,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider vote status = %d, want 403", rec.Code)
	}

	// Unknown poll and option.
	rec = f.do(t, http.MethodPost, "/api/polls/vote/missing", userToken, map[string]string{
		"optionId": created.Options[0].ID,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing poll vote status = %d, want 404", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/polls/vote/"+created.Poll.ID, userToken, map[string]string{
		"optionId": "bogus",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("bad option vote status = %d, want 404", rec.Code)
	}
}

func TestCloseAndReopenOverHTTP(t *testing.T) {
	f := newFixture(t)
	created := f.createPoll(t)
	mgrToken := f.tokenFor(t, "mgr-1", "manager")
	userToken := f.tokenFor(t, "user-1", "user")

	rec := f.do(t, http.MethodPost, "/api/polls/close/"+created.Poll.ID, userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member close status = %d, want 403", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/polls/close/"+created.Poll.ID, mgrToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/api/polls/vote/"+created.Poll.ID, userToken, map[string]string{
		"optionId": created.Options[0].ID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("vote on closed status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/polls/open/"+created.Poll.ID, mgrToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("open status = %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/polls/vote/"+created.Poll.ID, userToken, map[string]string{
		"optionId": created.Options[0].ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("vote after reopen status = %d", rec.Code)
	}
}

func TestListPollsOverHTTP(t *testing.T) {
	f := newFixture(t)
	f.createPoll(t)

	rec := f.do(t, http.MethodGet, "/api/polls/get-polls/org-1", f.tokenFor(t, "user-1", "user"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var polls []pollResponse
	if err := json.NewDecoder(rec.Body).Decode(&polls); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(polls) != 1 {
		t.Fatalf("got %d polls, want 1", len(polls))
	}

	rec = f.do(t, http.MethodGet, "/api/polls/get-polls/org-1", f.tokenFor(t, "outsider", "user"), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider list status = %d, want 403", rec.Code)
	}
}
