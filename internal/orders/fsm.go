package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// Actor is the principal driving a transition.
type Actor struct {
	ID   uuid.UUID
	Role enums.Role
}

// SystemActor is used by scheduled jobs.
var SystemActor = Actor{Role: enums.RoleSystem}

// TransitionError rejects a move the state machine does not allow.
type TransitionError struct {
	From enums.OrderStatus
	To   enums.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// CanTransition reports whether from may move to to: forward along the sequence or to
// Cancelled, and never out of a terminal state. Same-state is handled by callers as a no-op.
func CanTransition(from, to enums.OrderStatus) bool {
	if !from.IsValid() || !to.IsValid() || from.IsTerminal() || from == to {
		return false
	}
	if to == enums.OrderStatusCancelled {
		return true
	}
	return to.Rank() > from.Rank()
}

// CheckTransition is CanTransition returning a *TransitionError.
func CheckTransition(from, to enums.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return &TransitionError{From: from, To: to}
}

var roleTargets = map[enums.Role][]enums.OrderStatus{
	enums.RoleSeller:   {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.RoleDelivery: {enums.OrderStatusAccepted, enums.OrderStatusPickedUp, enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.RoleSystem:   {enums.OrderStatusCancelled},
}

// roleMayTarget reports whether role may request to through a status update. Admins may target
// anything; sellers reach Assigned only through agent assignment.
func roleMayTarget(role enums.Role, to enums.OrderStatus) bool {
	if role == enums.RoleAdmin {
		return true
	}
	for _, allowed := range roleTargets[role] {
		if allowed == to {
			return true
		}
	}
	return false
}

func canAssign(role enums.Role) bool {
	return role == enums.RoleSeller || role == enums.RoleAdmin
}
