// Package authz guards actions with a casbin RBAC model held in memory.
package authz

import (
	"errors"
	"fmt"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// ErrEmptyPolicy is returned when a policy has a blank element.
var ErrEmptyPolicy = errors.New("authz: policy subject, object and action are required")

// Policy allows Subject to perform Action on Object.
type Policy struct {
	Subject string
	Object  string
	Action  string
}

// Authorizer answers whether subject may perform action on object.
type Authorizer interface {
	Allowed(subject, object, action string) (bool, error)
}

// Enforcer is a casbin-backed Authorizer. Policies are fixed at construction.
type Enforcer struct {
	e *casbin.Enforcer
}

// New builds an Enforcer seeded with policies.
func New(policies []Policy) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: load model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: new enforcer: %w", err)
	}

	rules := make([][]string, 0, len(policies))
	for _, p := range policies {
		if p.Subject == "" || p.Object == "" || p.Action == "" {
			return nil, ErrEmptyPolicy
		}
		rules = append(rules, []string{p.Subject, p.Object, p.Action})
	}
	if len(rules) > 0 {
		if _, err := e.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("authz: add policies: %w", err)
		}
	}

	return &Enforcer{e: e}, nil
}

// Allowed reports whether the request matches a policy.
func (a *Enforcer) Allowed(subject, object, action string) (bool, error) {
	return a.e.Enforce(subject, object, action)
}
