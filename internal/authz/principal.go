package authz

import "sort"

// Principal describes the authenticated actor carried through every request.
// Its permission set is flattened from the user's roles once at login and
// stays fixed for the lifetime of the session; role edits made after that
// point are only picked up on re-authentication.
type Principal struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// RoleGrant is one role held by a user together with its permission codes.
type RoleGrant struct {
	Name        string
	Permissions []string
}

// NewPrincipal builds a Principal from the user's role grants. Permissions
// are the exact deduplicated union of the codes across all grants.
func NewPrincipal(id int64, username, email string, grants []RoleGrant) Principal {
	roles := make([]string, 0, len(grants))
	codes := make(map[string]struct{})
	for _, grant := range grants {
		roles = append(roles, grant.Name)
		for _, code := range grant.Permissions {
			if code == "" {
				continue
			}
			codes[code] = struct{}{}
		}
	}
	perms := make([]string, 0, len(codes))
	for code := range codes {
		perms = append(perms, code)
	}
	sort.Strings(perms)
	return Principal{ID: id, Username: username, Email: email, Roles: roles, Permissions: perms}
}

// HasPermission reports whether the principal holds the given code.
func (p Principal) HasPermission(code string) bool {
	for _, held := range p.Permissions {
		if held == code {
			return true
		}
	}
	return false
}
