// Package session keeps refresh sessions in Redis. Each session is keyed by the
// jti of the access token it was minted with, so revoking the session also
// invalidates that access token.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/enums"
)

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errNoAccessID          = errors.New("access id is required")
)

// Owner identifies the account a session belongs to.
type Owner struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
}

func (o Owner) valid() bool { return o.UserID != uuid.Nil && o.Role.IsValid() }

// entry is what Redis holds. Only a digest of the refresh token is stored.
type entry struct {
	Owner
	Digest string `json:"digest"`
}

// Store is the Redis surface sessions need.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	DeleteIfEquals(ctx context.Context, key, value string) (bool, error)
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware consults on every request.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	ttl := cfg.RefreshTokenTTL()
	access := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= access {
		return nil, fmt.Errorf("refresh token ttl %s must exceed access token ttl %s", ttl, access)
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// NewAccessID returns a fresh jti.
func NewAccessID() string { return uuid.NewString() }

// Generate opens a session for accessID and returns its refresh token.
func (m *Manager) Generate(ctx context.Context, accessID string, owner Owner) (string, error) {
	if blank(accessID) {
		return "", errNoAccessID
	}
	if !owner.valid() {
		return "", errors.New("session owner is required")
	}
	return m.open(ctx, accessID, owner)
}

// Rotate consumes the session behind oldAccessID when provided matches its
// refresh token and belongs to owner, then opens a replacement. A token can
// be rotated once; a concurrent second attempt fails.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string, owner Owner) (accessID, refresh string, err error) {
	if blank(oldAccessID) || blank(provided) {
		return "", "", ErrInvalidRefreshToken
	}
	key := m.store.AccessSessionKey(oldAccessID)
	raw, current, err := m.read(ctx, key)
	if err != nil {
		return "", "", err
	}
	if current.Owner != owner || subtle.ConstantTimeCompare([]byte(current.Digest), []byte(digest(provided))) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	consumed, err := m.store.DeleteIfEquals(ctx, key, raw)
	if err != nil {
		return "", "", fmt.Errorf("consume session: %w", err)
	}
	if !consumed {
		return "", "", ErrInvalidRefreshToken
	}

	accessID = NewAccessID()
	refresh, err = m.open(ctx, accessID, owner)
	if err != nil {
		return "", "", err
	}
	return accessID, refresh, nil
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if blank(accessID) {
		return errNoAccessID
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if blank(accessID) {
		return false, errNoAccessID
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redislib.Nil):
		return false, nil
	default:
		return false, err
	}
}

func (m *Manager) open(ctx context.Context, accessID string, owner Owner) (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("refresh token entropy: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf[:])

	body, err := json.Marshal(entry{Owner: owner, Digest: digest(token)})
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), string(body), m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (m *Manager) read(ctx context.Context, key string) (string, entry, error) {
	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, redislib.Nil) {
		return "", entry{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return "", entry{}, err
	}
	var e entry
	if json.Unmarshal([]byte(raw), &e) != nil {
		return "", entry{}, ErrInvalidRefreshToken
	}
	return raw, e, nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
