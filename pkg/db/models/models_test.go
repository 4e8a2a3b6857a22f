package models

import (
	"testing"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/enums"
)

func TestOrderLineItemTotalAndVendors(t *testing.T) {
	vendorA, vendorB := uuid.New(), uuid.New()
	order := Order{LineItems: []OrderLineItem{
		{VendorID: vendorA, SubtotalPaise: 8000},
		{VendorID: vendorB, SubtotalPaise: 3000},
		{VendorID: vendorA, SubtotalPaise: 2000},
	}}

	if got := order.LineItemTotal(); got != 13000 {
		t.Fatalf("expected 13000, got %d", got)
	}
	vendors := order.VendorIDs()
	if len(vendors) != 2 || vendors[0] != vendorA || vendors[1] != vendorB {
		t.Fatalf("unexpected vendors %v", vendors)
	}
}

func TestSellerCanSell(t *testing.T) {
	cases := []struct {
		seller Seller
		want   bool
	}{
		{Seller{Status: enums.SellerStatusApproved}, true},
		{Seller{Status: enums.SellerStatusApproved, IsBlocked: true}, false},
		{Seller{Status: enums.SellerStatusPending}, false},
		{Seller{Status: enums.SellerStatusRejected}, false},
	}
	for _, tc := range cases {
		if got := tc.seller.CanSell(); got != tc.want {
			t.Fatalf("seller %+v: expected %v, got %v", tc.seller, tc.want, got)
		}
	}
}
