// Package rbac makes role authorization decisions over a caller's
// role-assignment set, evaluated by an in-process OPA Rego policy.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/security"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
)

// Sentinel errors; HTTP handlers map them to 401 and 403.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient role")
)

const policyPackage = "pulsevote.authz"

// Authorization policy. The decision is over the whole role set, never a
// positional entry: admin satisfies manager checks, org-scoped manager
// assignments only satisfy checks for the matching org.
const regoPolicy = `package pulsevote.authz

default allow = false

allow if {
	input.required == "user"
	count(input.roles) > 0
}

allow if {
	input.required == "manager"
	some r in input.roles
	r.role == "admin"
	r.org_id == ""
}

allow if {
	input.required == "manager"
	some r in input.roles
	r.role == "manager"
	scope_ok(r)
}

allow if {
	input.required == "admin"
	some r in input.roles
	r.role == "admin"
	r.org_id == ""
}

scope_ok(r) if r.org_id == ""
scope_ok(r) if r.org_id == input.org_id
scope_ok(r) if input.org_id == ""
`

// Authorizer evaluates role requirements against the built-in Rego policy.
type Authorizer struct {
	compiler *ast.Compiler
}

// NewAuthorizer compiles the authorization policy. Returns an error if the
// policy does not compile.
func NewAuthorizer() (*Authorizer, error) {
	compiler, err := ast.CompileModules(map[string]string{"authz.rego": regoPolicy})
	if err != nil {
		return nil, fmt.Errorf("compile authz policy: %w", err)
	}
	return &Authorizer{compiler: compiler}, nil
}

// Allow reports whether a caller holding roles satisfies the required role.
// orgID scopes manager checks to one organisation; empty means any scope.
func (a *Authorizer) Allow(ctx context.Context, roles []security.RoleClaim, required userdomain.Role, orgID string) (bool, error) {
	input := map[string]interface{}{
		"required": string(required),
		"org_id":   orgID,
		"roles":    rolesInput(roles),
	}
	q := rego.New(
		rego.Query("data."+policyPackage+".allow"),
		rego.Compiler(a.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval authz policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	return ok && v, nil
}

// HealthCheck verifies the in-process Rego engine can evaluate the policy.
func (a *Authorizer) HealthCheck(ctx context.Context) error {
	ok, err := a.Allow(ctx, []security.RoleClaim{{Role: "admin"}}, userdomain.RoleAdmin, "")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("authz policy rejected a global admin")
	}
	return nil
}

func rolesInput(roles []security.RoleClaim) []interface{} {
	out := make([]interface{}, 0, len(roles))
	for _, r := range roles {
		out = append(out, map[string]interface{}{
			"org_id": r.OrgID,
			"role":   r.Role,
		})
	}
	return out
}
