package enums

import "testing"

func TestOrderStatusRankAndTerminal(t *testing.T) {
	if OrderStatusPending.Rank() != 0 || OrderStatusDelivered.Rank() != 5 {
		t.Fatalf("unexpected ranks: pending=%d delivered=%d", OrderStatusPending.Rank(), OrderStatusDelivered.Rank())
	}
	if OrderStatusCancelled.Rank() != -1 {
		t.Fatalf("expected cancelled outside the sequence")
	}
	for _, status := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		if !status.IsTerminal() {
			t.Fatalf("expected %s terminal", status)
		}
	}
	if OrderStatusPickedUp.IsTerminal() {
		t.Fatalf("picked up must not be terminal")
	}
	if !OrderStatusAccepted.RequiresDeliveryAgent() || OrderStatusProcessing.RequiresDeliveryAgent() {
		t.Fatalf("unexpected delivery agent requirement")
	}
}

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("Picked Up")
	if err != nil || got != OrderStatusPickedUp {
		t.Fatalf("expected Picked Up, got %q err=%v", got, err)
	}
	if _, err := ParseOrderStatus("Shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	cases := map[string]PaymentMethod{
		"COD":      PaymentMethodCOD,
		"cod":      PaymentMethodCOD,
		"Razorpay": PaymentMethodRazorpay,
		"Online":   PaymentMethodRazorpay,
	}
	for raw, want := range cases {
		got, err := ParsePaymentMethod(raw)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s err=%v", raw, want, got, err)
		}
	}
	if _, err := ParsePaymentMethod("PayPal"); err == nil {
		t.Fatal("expected error for unsupported method")
	}
	if !PaymentMethodRazorpay.IsOnline() || PaymentMethodCOD.IsOnline() {
		t.Fatal("unexpected online classification")
	}
}

func TestParseRole(t *testing.T) {
	if got, err := ParseRole(" Seller "); err != nil || got != RoleSeller {
		t.Fatalf("expected seller, got %q err=%v", got, err)
	}
	if _, err := ParseRole("system"); err == nil {
		t.Fatal("system role must not be parseable")
	}
}

func TestAnalyticsEventForCoversOutboxEvents(t *testing.T) {
	for _, event := range outboxEventTypes {
		got, ok := AnalyticsEventFor(event)
		if !ok || !got.IsValid() {
			t.Fatalf("expected analytics mapping for %s, got %q", event, got)
		}
	}
	if _, ok := AnalyticsEventFor("unknown.event"); ok {
		t.Fatal("expected unknown event to be unmapped")
	}
}
