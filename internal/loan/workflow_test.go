package loan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nusalend/nusalend/internal/authz"
)

func TestResolveLegalEdges(t *testing.T) {
	cases := []struct {
		from Status
		act  Action
		to   Status
		perm string
		note bool
	}{
		{StatusCreated, ActionReview, StatusReviewed, authz.PermReviewLoan, false},
		{StatusReviewed, ActionApprove, StatusApproved, authz.PermApproveLoan, false},
		{StatusReviewed, ActionReject, StatusRejected, authz.PermApproveLoan, true},
		{StatusApproved, ActionDisburse, StatusDisbursed, authz.PermDisburseLoan, false},
	}
	for _, tc := range cases {
		tr, err := Resolve(tc.from, tc.act)
		require.NoError(t, err, "%s from %s", tc.act, tc.from)
		require.Equal(t, tc.to, tr.To)
		require.Equal(t, tc.perm, tr.Permission)
		require.Equal(t, tc.note, tr.RequireNote)
	}
}

func TestResolveUnknownAction(t *testing.T) {
	_, err := Resolve(StatusCreated, Action("CANCEL"))
	require.ErrorIs(t, err, ErrUnknownTransition)
}

func TestResolveWrongSourceStatus(t *testing.T) {
	for _, status := range []Status{StatusReviewed, StatusApproved, StatusRejected, StatusDisbursed} {
		_, err := Resolve(status, ActionReview)
		require.ErrorIs(t, err, ErrInvalidTransition, "review from %s", status)
	}
	_, err := Resolve(StatusCreated, ActionDisburse)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTerminalStatusesHaveNoActions(t *testing.T) {
	require.Empty(t, NextActions(StatusRejected))
	require.Empty(t, NextActions(StatusDisbursed))
	for _, action := range []Action{ActionReview, ActionApprove, ActionReject, ActionDisburse} {
		_, err := Resolve(StatusRejected, action)
		require.Error(t, err)
		_, err = Resolve(StatusDisbursed, action)
		require.Error(t, err)
	}
}

func TestNextActions(t *testing.T) {
	require.Equal(t, []Action{ActionReview}, NextActions(StatusCreated))
	require.Equal(t, []Action{ActionApprove, ActionReject}, NextActions(StatusReviewed))
	require.Equal(t, []Action{ActionDisburse}, NextActions(StatusApproved))
}

func TestRequiredPermission(t *testing.T) {
	perm, ok := RequiredPermission(ActionReject)
	require.True(t, ok)
	require.Equal(t, authz.PermApproveLoan, perm)

	_, ok = RequiredPermission(Action("NOPE"))
	require.False(t, ok)
}

func TestParseApprovalAction(t *testing.T) {
	action, ok := parseApprovalAction("APPROVE")
	require.True(t, ok)
	require.Equal(t, ActionApprove, action)

	action, ok = parseApprovalAction("REJECT")
	require.True(t, ok)
	require.Equal(t, ActionReject, action)

	// Status names are not action aliases.
	for _, raw := range []string{"APPROVED", "REJECTED", "approve", "DISBURSE", ""} {
		_, ok := parseApprovalAction(raw)
		require.False(t, ok, raw)
	}
}
