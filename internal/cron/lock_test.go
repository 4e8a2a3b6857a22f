package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenStore struct {
	values map[string]string
	ttl    time.Duration
	err    error
}

func (s *tokenStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if _, taken := s.values[key]; taken {
		return false, nil
	}
	s.values[key] = value.(string)
	s.ttl = ttl
	return true, nil
}

func (s *tokenStore) DeleteIfEquals(_ context.Context, key, value string) (bool, error) {
	if s.values[key] != value {
		return false, nil
	}
	delete(s.values, key)
	return true, nil
}

func TestRedisLockExclusive(t *testing.T) {
	store := &tokenStore{values: map[string]string{}}
	a, err := NewRedisLock(store, "sabji:lock:cron", 0)
	require.NoError(t, err)
	b, err := NewRedisLock(store, "sabji:lock:cron", 0)
	require.NoError(t, err)

	got, err := a.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, defaultLockTTL, store.ttl)

	got, err = b.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, got)

	// b never held it, so its release must not free a's lock
	require.NoError(t, b.Release(context.Background()))
	assert.Contains(t, store.values, "sabji:lock:cron")

	require.NoError(t, a.Release(context.Background()))
	assert.NotContains(t, store.values, "sabji:lock:cron")
}

func TestRedisLockExpiredAndRetaken(t *testing.T) {
	store := &tokenStore{values: map[string]string{}}
	a, _ := NewRedisLock(store, "k", time.Minute)
	_, err := a.Acquire(context.Background())
	require.NoError(t, err)

	store.values["k"] = "someone-else"
	require.NoError(t, a.Release(context.Background()))
	assert.Equal(t, "someone-else", store.values["k"])
}

func TestRedisLockErrors(t *testing.T) {
	_, err := NewRedisLock(nil, "k", 0)
	assert.Error(t, err)
	_, err = NewRedisLock(&tokenStore{}, "", 0)
	assert.Error(t, err)

	l, _ := NewRedisLock(&tokenStore{values: map[string]string{}, err: errors.New("conn refused")}, "k", 0)
	_, err = l.Acquire(context.Background())
	assert.ErrorContains(t, err, "conn refused")
}
