package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPrincipalFlattensRoleGrants(t *testing.T) {
	p := NewPrincipal(1, "sari", "sari@nusalend.id", []RoleGrant{
		{Name: "R1", Permissions: []string{"A", "B"}},
		{Name: "R2", Permissions: []string{"B", "C"}},
	})
	require.Equal(t, []string{"R1", "R2"}, p.Roles)
	require.Equal(t, []string{"A", "B", "C"}, p.Permissions)
}

func TestNewPrincipalSkipsEmptyCodes(t *testing.T) {
	p := NewPrincipal(1, "sari", "", []RoleGrant{
		{Name: "R1", Permissions: []string{"", "A"}},
	})
	require.Equal(t, []string{"A"}, p.Permissions)
}

func TestNewPrincipalNoRoles(t *testing.T) {
	p := NewPrincipal(1, "sari", "", nil)
	require.Empty(t, p.Roles)
	require.Empty(t, p.Permissions)
	require.False(t, p.HasPermission(PermReviewLoan))
}

func TestAuthorize(t *testing.T) {
	p := NewPrincipal(1, "sari", "", []RoleGrant{
		{Name: "Marketing", Permissions: []string{PermReviewLoan, PermReadLoan}},
	})

	require.Equal(t, Allow, Authorize(p, PermReviewLoan))
	require.Equal(t, Deny, Authorize(p, PermApproveLoan))
	require.True(t, Authorize(p, "").Allowed(), "empty requirement is unconstrained")
	require.Equal(t, Allow, Authorize(Principal{}, ""))
	require.Equal(t, Deny, Authorize(Principal{}, PermReadLoan))
}

func TestDecisionString(t *testing.T) {
	require.Equal(t, "ALLOW", Allow.String())
	require.Equal(t, "DENY", Deny.String())
}

func TestAuthorizeIgnoresLaterRoleEdits(t *testing.T) {
	grants := []RoleGrant{{Name: "Marketing", Permissions: []string{PermReviewLoan}}}
	p := NewPrincipal(1, "sari", "", grants)

	// Mutating the grant after the snapshot was taken must not change the
	// principal's permissions.
	grants[0].Permissions[0] = PermApproveLoan
	require.Equal(t, Allow, Authorize(p, PermReviewLoan))
	require.Equal(t, Deny, Authorize(p, PermApproveLoan))
}
