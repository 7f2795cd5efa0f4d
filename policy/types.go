package policy

type Conclusion int

const (
	UNSET Conclusion = iota
	OK
	NG
	ALLOW
	DENY
)

func ParseConclusion(s string) Conclusion {
	switch s {
	case "allow":
		return ALLOW
	case "deny":
		return DENY
	case "ok":
		return OK
	case "ng":
		return NG
	default:
		return UNSET
	}
}

// Or merges two conclusions. DENY beats ALLOW only when it is the sole
// strong conclusion; a direct ALLOW/DENY clash resolves to UNSET.
func (c Conclusion) Or(other Conclusion) Conclusion {
	if c == UNSET {
		return other
	}
	if other == UNSET {
		return c
	}
	if (c == DENY && other == ALLOW) || (c == ALLOW && other == DENY) {
		return UNSET
	}
	if c == DENY || other == DENY {
		return DENY
	}
	if c == ALLOW || other == ALLOW {
		return ALLOW
	}
	if (c == OK && other == NG) || (c == NG && other == OK) {
		return UNSET
	}
	if c == OK || other == OK {
		return OK
	}
	if c == NG || other == NG {
		return NG
	}
	return UNSET
}

// RequestContext is what a condition may Load from, addressed with dot
// notation, e.g. "requester.isAdmin" or "resource.status".
type RequestContext struct {
	Requester map[string]any `json:"requester"`
	Resource  map[string]any `json:"resource"`
	Params    map[string]any `json:"params"`
}

type PolicyDocument struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Versions    map[string]Policy `json:"versions" yaml:"versions"`
}

type Policy struct {
	Statements map[string][]Stmt `json:"statements" yaml:"statements"`
	Defaults   map[string]bool   `json:"defaults" yaml:"defaults"`
}

type Stmt struct {
	Emit      string `json:"emit" yaml:"emit"`
	Condition Expr   `json:"condition" yaml:"condition"`
}

type Expr struct {
	Operator string `json:"op" yaml:"op"`
	Args     []Expr `json:"args" yaml:"args"`
	Const    any    `json:"const,omitempty" yaml:"const,omitempty"`
}

type EvalResult struct {
	Operator string       `json:"op"`
	Args     []EvalResult `json:"args"`
	Result   any          `json:"result"`
	Error    string       `json:"error"`
}
