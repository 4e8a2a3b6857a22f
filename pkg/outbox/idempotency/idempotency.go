// Package idempotency records which deliveries a consumer has already handled.
// Claims live in Redis under sabji:idempotency:evt:processed:<consumer>:<id>
// and expire after the configured TTL.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sabjimart/sabji-backend/pkg/redis"
)

var ErrEmptyID = errors.New("delivery id is required")

// Guard claims delivery ids for a single consumer.
type Guard struct {
	store redis.IdempotencyStore
	scope string
	ttl   time.Duration
}

func NewGuard(store redis.IdempotencyStore, consumer string, ttl time.Duration) (*Guard, error) {
	consumer = strings.TrimSpace(consumer)
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case consumer == "":
		return nil, errors.New("consumer name is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, scope: "evt:processed:" + consumer, ttl: ttl}, nil
}

// CheckAndMark claims id and reports true when an earlier claim is still live.
func (g *Guard) CheckAndMark(ctx context.Context, id string) (bool, error) {
	key, err := g.key(id)
	if err != nil {
		return false, err
	}
	claimed, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", id, err)
	}
	return !claimed, nil
}

// Release forgets the claim so a redelivery is handled again.
func (g *Guard) Release(ctx context.Context, id string) error {
	key, err := g.key(id)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrEmptyID
	}
	return g.store.IdempotencyKey(g.scope, id), nil
}
