package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sabjimart/sabji-backend/api/responses"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

// RateCounter is a fixed-window counter store.
type RateCounter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// AuthRateLimitPolicy caps attempts per client IP and per login identifier
// (email, or mobile for delivery agents) inside a fixed window.
type AuthRateLimitPolicy struct {
	name          string
	window        time.Duration
	perIP         int64
	perIdentifier int64
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, identifierLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, perIP: int64(ipLimit), perIdentifier: int64(identifierLimit)}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.window > 0 && (p.perIP > 0 || p.perIdentifier > 0)
}

// AuthRateLimit answers 429 once either counter passes its limit. Counters are
// incremented before the handler runs, so failed and successful attempts count alike.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || !policy.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			type bucket struct {
				dimension, value string
				limit            int64
			}
			var buckets []bucket
			if policy.perIP > 0 {
				if ip := clientIP(r); ip != "" {
					buckets = append(buckets, bucket{"ip", ip, policy.perIP})
				}
			}
			if policy.perIdentifier > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if id := loginIdentifier(body); id != "" {
					sum := sha256.Sum256([]byte(id))
					buckets = append(buckets, bucket{"identifier", hex.EncodeToString(sum[:]), policy.perIdentifier})
				}
			}

			for _, b := range buckets {
				key := store.RateLimitKey(policy.name, b.dimension, b.value)
				count, err := store.IncrWithTTL(ctx, key, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit store unavailable"))
					return
				}
				if count > b.limit {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":    policy.name,
						"dimension": b.dimension,
						"attempts":  count,
						"limit":     b.limit,
					}), "auth rate limit exceeded")
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP trusts the first X-Forwarded-For hop, which the platform router sets.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func loginIdentifier(body []byte) string {
	var payload struct {
		Email  string `json:"email"`
		Mobile string `json:"mobile"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if email := strings.ToLower(strings.TrimSpace(payload.Email)); email != "" {
		return email
	}
	return strings.TrimSpace(payload.Mobile)
}
