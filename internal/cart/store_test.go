package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/sabjimart/sabji-backend/pkg/redis"
)

type fakeKV struct {
	values  map[string]string
	lastTTL time.Duration
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redisclient.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	f.lastTTL = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeKV) CartKey(sessionID string) string {
	return "sabji:cart:" + sessionID
}

func TestStoreRoundTripAndClear(t *testing.T) {
	kv := &fakeKV{values: map[string]string{}}
	store, err := NewStore(kv, 168*time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	empty, err := store.Load(ctx, "s1")
	if err != nil || !empty.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v %v", empty, err)
	}

	c := Cart{Items: []Item{{VendorID: uuid.New(), ProductID: uuid.New(), Name: "Carrot", UnitPricePaise: 4000, Qty: 2, SubtotalPaise: 8000}}}
	if err := store.Save(ctx, "s1", c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if kv.lastTTL != 168*time.Hour {
		t.Fatalf("expected ttl refresh, got %v", kv.lastTTL)
	}

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Total() != 8000 || loaded.Items[0].Name != "Carrot" {
		t.Fatalf("unexpected cart %+v", loaded)
	}

	if err := store.Save(ctx, "s1", Cart{}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if _, ok := kv.values["sabji:cart:s1"]; ok {
		t.Fatalf("expected empty save to delete the key")
	}
}

func TestStoreRejectsCorruptPayload(t *testing.T) {
	kv := &fakeKV{values: map[string]string{"sabji:cart:s1": "{"}}
	store, _ := NewStore(kv, time.Hour)
	if _, err := store.Load(context.Background(), "s1"); err == nil {
		t.Fatalf("expected decode error")
	}
}
