package policy

import (
	"context"
	"os"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/totegamma/biomap/internal/domain"
)

func isAdmin() Expr {
	return Expr{
		Operator: "Eq",
		Args: []Expr{
			{Operator: "Load", Args: []Expr{{Const: "requester.isAdmin"}}},
			{Const: true},
		},
	}
}

func adminOnly() []Stmt {
	return []Stmt{{Emit: "allow", Condition: isAdmin()}}
}

// ModerationPolicy lets administrators moderate and inspect unpublished pins.
// Every action defaults to deny.
var ModerationPolicy = PolicyDocument{
	Name:        "biomap.moderation",
	Description: "administrators approve, reject and inspect pending pins",
	Versions: map[string]Policy{
		CurrentVersion: {
			Statements: map[string][]Stmt{
				domain.ActionApprove:     adminOnly(),
				domain.ActionReject:      adminOnly(),
				domain.ActionListPending: adminOnly(),
				domain.ActionGet:         adminOnly(),
			},
			Defaults: map[string]bool{},
		},
	},
}

// LoadFile reads a policy document from YAML (JSON is valid YAML too).
func LoadFile(path string) (PolicyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PolicyDocument{}, errors.Wrap(err, "policy.LoadFile: read failed")
	}
	var doc PolicyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return PolicyDocument{}, errors.Wrap(err, "policy.LoadFile: decode failed")
	}
	if _, ok := doc.Versions[CurrentVersion]; !ok {
		return PolicyDocument{}, errors.Errorf("policy.LoadFile: %s has no version %s", path, CurrentVersion)
	}
	return doc, nil
}

type Authorizer struct {
	doc PolicyDocument
}

func NewAuthorizer(doc PolicyDocument) *Authorizer {
	return &Authorizer{doc: doc}
}

func RequestContextFor(requester domain.Requester) RequestContext {
	return RequestContext{
		Requester: map[string]any{
			"id":      requester.ID,
			"isAdmin": requester.IsAdmin,
		},
	}
}

// adminActions always require the admin capability. A policy document can only
// narrow who among the admins may perform them.
var adminActions = map[string]bool{
	domain.ActionApprove:     true,
	domain.ActionReject:      true,
	domain.ActionListPending: true,
	domain.ActionGet:         true,
}

// Authorize returns nil when the policy allows action for requester and a
// domain.ForbiddenError when it does not.
func (a *Authorizer) Authorize(ctx context.Context, requester domain.Requester, action string) error {
	if adminActions[action] && !requester.IsAdmin {
		return domain.ForbiddenError{Action: action}
	}

	conclusion, err := EvaluatePolicy(a.doc, RequestContextFor(requester), action)
	if err != nil {
		return errors.Wrap(err, "Authorizer.Authorize: EvaluatePolicy failed")
	}

	defaultAllow := a.doc.Versions[CurrentVersion].Defaults[action]
	if !SummerizeConclusion([]Conclusion{conclusion}, defaultAllow) {
		return domain.ForbiddenError{Action: action}
	}
	return nil
}
