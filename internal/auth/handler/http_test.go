package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/auth/service"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/platform/rbac"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/security"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/server/middleware"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

type memUserRepo struct {
	mu          sync.Mutex
	byID        map[string]*userdomain.User
	byEmail     map[string]*userdomain.User
	assignments map[string][]*userdomain.RoleAssignment
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:        make(map[string]*userdomain.User),
		byEmail:     make(map[string]*userdomain.User),
		assignments: make(map[string][]*userdomain.RoleAssignment),
	}
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *memUserRepo) CreateWithRole(_ context.Context, u *userdomain.User, ra *userdomain.RoleAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = &cp
	ra2 := *ra
	m.assignments[ra.UserID] = append(m.assignments[ra.UserID], &ra2)
	return nil
}

func (m *memUserRepo) CreateFirstAdmin(_ context.Context, u *userdomain.User, ra *userdomain.RoleAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ras := range m.assignments {
		for _, existing := range ras {
			if existing.Role == userdomain.RoleAdmin {
				return userdomain.ErrAdminExists
			}
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = &cp
	ra2 := *ra
	m.assignments[ra.UserID] = append(m.assignments[ra.UserID], &ra2)
	return nil
}

func (m *memUserRepo) ListRoleAssignments(_ context.Context, userID string) ([]*userdomain.RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignments[userID], nil
}

func (m *memUserRepo) CountByRole(_ context.Context, role userdomain.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	for userID, ras := range m.assignments {
		for _, ra := range ras {
			if ra.Role == role {
				seen[userID] = true
			}
		}
	}
	return len(seen), nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *security.TokenProvider) {
	t.Helper()
	tokens := security.NewTestTokenProvider()
	authSvc := service.NewAuthService(newMemUserRepo(), security.NewHasher(4), tokens)
	authz, err := rbac.NewAuthorizer()
	if err != nil {
		t.Fatalf("authorizer: %v", err)
	}
	h := NewHandler(authSvc, authz)

	r := chi.NewRouter()
	r.Use(middleware.Authenticate(tokens))
	r.Route("/api/auth", h.Routes)
	return r, tokens
}

func postJSON(t *testing.T, r http.Handler, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) authResponse {
	t.Helper()
	var out authResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestRegisterLoginFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := postJSON(t, r, "/api/auth/register-user", "", map[string]string{
		"email": "a@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, r, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	res := decodeAuth(t, rec)
	if res.Token == "" {
		t.Fatal("login should return a token")
	}
	if len(res.Roles) != 1 || res.Roles[0].Role != "user" {
		t.Fatalf("roles = %+v, want [user]", res.Roles)
	}

	// A plain user may not register managers.
	rec = postJSON(t, r, "/api/auth/register-manager", res.Token, map[string]string{
		"email": "m@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("register-manager as user: status = %d, want 403", rec.Code)
	}
}

func TestInitAdmin(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := postJSON(t, r, "/api/auth/init-admin", "", map[string]string{
		"email": "root@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("init-admin status = %d, body %s", rec.Code, rec.Body.String())
	}
	admin := decodeAuth(t, rec)

	// Second bootstrap attempt conflicts.
	rec = postJSON(t, r, "/api/auth/init-admin", "", map[string]string{
		"email": "other@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second init-admin status = %d, want 409", rec.Code)
	}

	// The admin can register managers and admins.
	rec = postJSON(t, r, "/api/auth/register-manager", admin.Token, map[string]string{
		"email": "m@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register-manager status = %d, body %s", rec.Code, rec.Body.String())
	}
	manager := decodeAuth(t, rec)

	rec = postJSON(t, r, "/api/auth/register-admin", admin.Token, map[string]string{
		"email": "a2@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register-admin status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Managers can register managers but not admins.
	rec = postJSON(t, r, "/api/auth/register-manager", manager.Token, map[string]string{
		"email": "m2@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("manager register-manager status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = postJSON(t, r, "/api/auth/register-admin", manager.Token, map[string]string{
		"email": "a3@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("manager register-admin status = %d, want 403", rec.Code)
	}
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := postJSON(t, r, "/api/auth/register-user", "", map[string]string{
		"email": "bad", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, r, "/api/auth/register-user", "", map[string]string{
		"email": "dup@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}
	rec = postJSON(t, r, "/api/auth/register-user", "", map[string]string{
		"email": "dup@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, r, "/api/auth/login", "", map[string]string{
		"email": "dup@x.com", "password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", rec.Code)
	}
}

func TestRegisterManagerRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := postJSON(t, r, "/api/auth/register-manager", "", map[string]string{
		"email": "m@x.com", "password": "Passw0rd!",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous register-manager status = %d, want 401", rec.Code)
	}
}
