package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/biomap/internal/domain"
)

func TestEvalLoadEq(t *testing.T) {
	ctx := RequestContext{
		Requester: map[string]any{"id": "alice", "isAdmin": true},
	}

	result, err := Eval(ctx, isAdmin())
	require.NoError(t, err)
	assert.Equal(t, true, result.Result)
	assert.Len(t, result.Args, 2)

	ctx.Requester["isAdmin"] = false
	result, err = Eval(ctx, isAdmin())
	require.NoError(t, err)
	assert.Equal(t, false, result.Result)
}

func TestEvalErrors(t *testing.T) {
	ctx := RequestContext{}

	_, err := Eval(ctx, Expr{Operator: "Load", Args: []Expr{{Const: "requester.isAdmin"}}})
	assert.Error(t, err)

	_, err = Eval(ctx, Expr{Operator: "Nope"})
	assert.Error(t, err)

	_, err = Eval(ctx, Expr{Operator: "And", Args: []Expr{{Const: true}, {Const: "yes"}}})
	assert.Error(t, err)

	result, err := Eval(ctx, Expr{Operator: "Exists", Args: []Expr{{Const: "requester.id"}}})
	require.NoError(t, err)
	assert.Equal(t, false, result.Result)
}

func TestEvalBooleanOperators(t *testing.T) {
	ctx := RequestContext{Params: map[string]any{"tags": []any{"a", "b"}}}

	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{"and", Expr{Operator: "And", Args: []Expr{{Const: true}, {Const: true}}}, true},
		{"and false", Expr{Operator: "And", Args: []Expr{{Const: true}, {Const: false}}}, false},
		{"or", Expr{Operator: "Or", Args: []Expr{{Const: false}, {Const: true}}}, true},
		{"not", Expr{Operator: "Not", Args: []Expr{{Const: false}}}, true},
		{"contains", Expr{Operator: "Contains", Args: []Expr{
			{Operator: "Load", Args: []Expr{{Const: "params.tags"}}},
			{Const: "b"},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Eval(ctx, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Result)
		})
	}
}

func TestConclusionOr(t *testing.T) {
	assert.Equal(t, ALLOW, UNSET.Or(ALLOW))
	assert.Equal(t, UNSET, ALLOW.Or(DENY))
	assert.Equal(t, DENY, DENY.Or(NG))
	assert.False(t, SummerizeConclusion([]Conclusion{UNSET}, false))
	assert.True(t, SummerizeConclusion([]Conclusion{UNSET}, true))
	assert.False(t, SummerizeConclusion([]Conclusion{DENY, ALLOW}, true))
}

func TestModerationPolicy(t *testing.T) {
	authz := NewAuthorizer(ModerationPolicy)
	ctx := context.Background()

	for _, action := range []string{
		domain.ActionApprove,
		domain.ActionReject,
		domain.ActionListPending,
		domain.ActionGet,
	} {
		assert.NoError(t, authz.Authorize(ctx, domain.Requester{ID: "root", IsAdmin: true}, action), action)
		assert.ErrorIs(t, authz.Authorize(ctx, domain.Requester{ID: "bob"}, action), domain.ErrForbidden, action)
		assert.ErrorIs(t, authz.Authorize(ctx, domain.Requester{}, action), domain.ErrForbidden, action)
	}

	assert.ErrorIs(t, authz.Authorize(ctx, domain.Requester{IsAdmin: true}, "pin.unknown"), domain.ErrForbidden)
}

func TestLoadFileCannotLiftAdminGate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	doc := `
name: custom
versions:
  "2025-01-01":
    statements:
      pin.approve:
        - emit: allow
          condition:
            op: Eq
            args:
              - op: Load
                args:
                  - const: requester.id
              - const: curator
    defaults:
      pin.listPending: true
      pin.reject: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	loaded, err := LoadFile(path)
	require.NoError(t, err)

	authz := NewAuthorizer(loaded)
	ctx := context.Background()

	// the document narrows approval to one admin
	assert.NoError(t, authz.Authorize(ctx, domain.Requester{ID: "curator", IsAdmin: true}, domain.ActionApprove))
	assert.ErrorIs(t, authz.Authorize(ctx, domain.Requester{ID: "other", IsAdmin: true}, domain.ActionApprove), domain.ErrForbidden)

	// but never grants moderation to non-admins
	assert.ErrorIs(t, authz.Authorize(ctx, domain.Requester{ID: "curator"}, domain.ActionApprove), domain.ErrForbidden)
	assert.ErrorIs(t, authz.Authorize(ctx, domain.Requester{}, domain.ActionListPending), domain.ErrForbidden)
	assert.ErrorIs(t, authz.Authorize(ctx, domain.Requester{}, domain.ActionReject), domain.ErrForbidden)
	assert.NoError(t, authz.Authorize(ctx, domain.Requester{ID: "root", IsAdmin: true}, domain.ActionListPending))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
