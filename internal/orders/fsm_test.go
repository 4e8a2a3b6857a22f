package orders

import (
	"errors"
	"testing"

	"github.com/sabjimart/sabji-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
		want bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusProcessing, true},
		{enums.OrderStatusPending, enums.OrderStatusDelivered, true},
		{enums.OrderStatusProcessing, enums.OrderStatusAssigned, true},
		{enums.OrderStatusAssigned, enums.OrderStatusAccepted, true},
		{enums.OrderStatusAccepted, enums.OrderStatusPickedUp, true},
		{enums.OrderStatusPickedUp, enums.OrderStatusDelivered, true},
		{enums.OrderStatusPickedUp, enums.OrderStatusCancelled, true},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusProcessing, enums.OrderStatusPending, false},
		{enums.OrderStatusPickedUp, enums.OrderStatusAssigned, false},
		{enums.OrderStatusDelivered, enums.OrderStatusCancelled, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPending, false},
		{enums.OrderStatusCancelled, enums.OrderStatusCancelled, false},
		{enums.OrderStatusPending, enums.OrderStatusPending, false},
		{enums.OrderStatusPending, enums.OrderStatus("Shipped"), false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s): expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestCheckTransitionReturnsTypedError(t *testing.T) {
	err := CheckTransition(enums.OrderStatusDelivered, enums.OrderStatusPending)
	var transition *TransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected *TransitionError, got %T", err)
	}
	if transition.From != enums.OrderStatusDelivered || transition.To != enums.OrderStatusPending {
		t.Fatalf("unexpected transition error %+v", transition)
	}
	if err := CheckTransition(enums.OrderStatusPending, enums.OrderStatusProcessing); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRoleTargets(t *testing.T) {
	cases := []struct {
		role enums.Role
		to   enums.OrderStatus
		want bool
	}{
		{enums.RoleSeller, enums.OrderStatusProcessing, true},
		{enums.RoleSeller, enums.OrderStatusCancelled, true},
		{enums.RoleSeller, enums.OrderStatusAssigned, false},
		{enums.RoleSeller, enums.OrderStatusDelivered, false},
		{enums.RoleDelivery, enums.OrderStatusAccepted, true},
		{enums.RoleDelivery, enums.OrderStatusPickedUp, true},
		{enums.RoleDelivery, enums.OrderStatusDelivered, true},
		{enums.RoleDelivery, enums.OrderStatusProcessing, false},
		{enums.RoleAdmin, enums.OrderStatusDelivered, true},
		{enums.RoleSystem, enums.OrderStatusCancelled, true},
		{enums.RoleSystem, enums.OrderStatusProcessing, false},
		{enums.RoleCustomer, enums.OrderStatusCancelled, false},
	}

	for _, tc := range cases {
		if got := roleMayTarget(tc.role, tc.to); got != tc.want {
			t.Fatalf("roleMayTarget(%s, %s): expected %v, got %v", tc.role, tc.to, tc.want, got)
		}
	}
	if !canAssign(enums.RoleSeller) || !canAssign(enums.RoleAdmin) || canAssign(enums.RoleDelivery) {
		t.Fatal("unexpected assignment permissions")
	}
}
