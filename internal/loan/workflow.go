package loan

import "github.com/nusalend/nusalend/internal/authz"

// Transition is one legal edge of the status graph together with the
// permission that gates it.
type Transition struct {
	From        Status
	To          Status
	Permission  string
	RequireNote bool
}

// transitions maps every workflow verb to its single legal edge. The table
// is total over the four actions; anything else is an unknown transition.
var transitions = map[Action]Transition{
	ActionReview:   {From: StatusCreated, To: StatusReviewed, Permission: authz.PermReviewLoan},
	ActionApprove:  {From: StatusReviewed, To: StatusApproved, Permission: authz.PermApproveLoan},
	ActionReject:   {From: StatusReviewed, To: StatusRejected, Permission: authz.PermApproveLoan, RequireNote: true},
	ActionDisburse: {From: StatusApproved, To: StatusDisbursed, Permission: authz.PermDisburseLoan},
}

// Resolve looks up the edge for the requested action against the current
// status. Existence of the transition is decided before any authorization
// question is asked.
func Resolve(current Status, action Action) (Transition, error) {
	tr, ok := transitions[action]
	if !ok {
		return Transition{}, ErrUnknownTransition
	}
	if tr.From != current {
		return Transition{}, ErrInvalidTransition
	}
	return tr, nil
}

// NextActions lists the verbs legal from the given status, in the fixed
// review, approve, reject, disburse order. Terminal statuses return nil.
func NextActions(current Status) []Action {
	var actions []Action
	for _, action := range []Action{ActionReview, ActionApprove, ActionReject, ActionDisburse} {
		if transitions[action].From == current {
			actions = append(actions, action)
		}
	}
	return actions
}

// RequiredPermission exposes the permission gating an action, used by the
// presentation layer to decide which actions to offer.
func RequiredPermission(action Action) (string, bool) {
	tr, ok := transitions[action]
	if !ok {
		return "", false
	}
	return tr.Permission, true
}
