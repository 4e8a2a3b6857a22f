package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/sabjimart/sabji-backend/pkg/redis"
)

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// Store keeps carts in Redis as JSON with a sliding TTL.
type Store struct {
	kv  kvStore
	ttl time.Duration
}

func NewStore(kv kvStore, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, errors.New("redis store required")
	}
	if ttl <= 0 {
		return nil, errors.New("cart ttl must be positive")
	}
	return &Store{kv: kv, ttl: ttl}, nil
}

// Load returns the session cart, empty when none is stored.
func (s *Store) Load(ctx context.Context, sessionID string) (Cart, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(sessionID))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return Cart{}, nil
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

// Save writes the cart and refreshes its TTL; an empty cart deletes the key.
func (s *Store) Save(ctx context.Context, sessionID string, c Cart) error {
	if c.IsEmpty() {
		return s.Clear(ctx, sessionID)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.kv.Set(ctx, s.kv.CartKey(sessionID), string(data), s.ttl)
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	return s.kv.Del(ctx, s.kv.CartKey(sessionID))
}
