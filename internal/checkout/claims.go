package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/sabjimart/sabji-backend/pkg/redis"
)

type claimKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	GatewayOrderKey(gatewayOrderID string) string
}

// GatewayClaim ties a gateway order to the customer and amount it was created for.
type GatewayClaim struct {
	CustomerID  uuid.UUID `json:"customer_id"`
	AmountPaise int64     `json:"amount_paise"`
}

// ClaimStore remembers gateway orders between create-order and checkout.
type ClaimStore struct {
	kv  claimKV
	ttl time.Duration
}

func NewClaimStore(kv claimKV, ttl time.Duration) (*ClaimStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ClaimStore{kv: kv, ttl: ttl}, nil
}

func (s *ClaimStore) Remember(ctx context.Context, gatewayOrderID string, claim GatewayClaim) error {
	raw, err := json.Marshal(claim)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.kv.GatewayOrderKey(gatewayOrderID), raw, s.ttl)
}

// Lookup returns ok=false when the claim expired or never existed.
func (s *ClaimStore) Lookup(ctx context.Context, gatewayOrderID string) (GatewayClaim, bool, error) {
	raw, err := s.kv.Get(ctx, s.kv.GatewayOrderKey(gatewayOrderID))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return GatewayClaim{}, false, nil
		}
		return GatewayClaim{}, false, err
	}
	var claim GatewayClaim
	if err := json.Unmarshal([]byte(raw), &claim); err != nil {
		return GatewayClaim{}, false, fmt.Errorf("decode gateway claim: %w", err)
	}
	return claim, true, nil
}

func (s *ClaimStore) Forget(ctx context.Context, gatewayOrderID string) error {
	return s.kv.Del(ctx, s.kv.GatewayOrderKey(gatewayOrderID))
}
