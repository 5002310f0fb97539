// Package authz evaluates permission decisions for authenticated principals.
// The decision function is pure: it reads only the principal's frozen
// permission snapshot and never touches the role store.
package authz

// Decision is the outcome of an authorization check. Deny is a normal
// result that callers branch on, not an error.
type Decision int

const (
	// Deny refuses the guarded action.
	Deny Decision = iota
	// Allow permits the guarded action.
	Allow
)

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool {
	return d == Allow
}

func (d Decision) String() string {
	if d == Allow {
		return "ALLOW"
	}
	return "DENY"
}

// Authorize decides whether the principal may perform an action guarded by
// the required permission code. An empty code means the action is
// unconstrained and always allowed.
func Authorize(p Principal, required string) Decision {
	if required == "" {
		return Allow
	}
	if p.HasPermission(required) {
		return Allow
	}
	return Deny
}
