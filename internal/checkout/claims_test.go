package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/sabjimart/sabji-backend/pkg/redis"
)

type fakeKV struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redisclient.Nil
	}
	return v, nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeKV) GatewayOrderKey(id string) string {
	return "sabji:checkout:gateway-order:" + id
}

func TestClaimStoreRoundTrip(t *testing.T) {
	kv := newFakeKV()
	store, err := NewClaimStore(kv, 0)
	if err != nil {
		t.Fatalf("NewClaimStore: %v", err)
	}
	ctx := context.Background()
	customer := uuid.New()

	if err := store.Remember(ctx, "order_1", GatewayClaim{CustomerID: customer, AmountPaise: 8000}); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if ttl := kv.ttls["sabji:checkout:gateway-order:order_1"]; ttl != time.Hour {
		t.Fatalf("expected default ttl 1h, got %v", ttl)
	}

	claim, ok, err := store.Lookup(ctx, "order_1")
	if err != nil || !ok {
		t.Fatalf("expected claim, got ok=%v err=%v", ok, err)
	}
	if claim.CustomerID != customer || claim.AmountPaise != 8000 {
		t.Fatalf("unexpected claim %+v", claim)
	}

	if err := store.Forget(ctx, "order_1"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, ok, _ := store.Lookup(ctx, "order_1"); ok {
		t.Fatal("expected claim removed")
	}
}
