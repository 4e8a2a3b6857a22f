package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sabjimart/sabji-backend/api/responses"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	pkgredis "github.com/sabjimart/sabji-backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	standardReplayTTL = 24 * time.Hour
	paymentReplayTTL  = 7 * 24 * time.Hour
	inFlightTTL       = 2 * time.Minute
	maxKeyLength      = 255
)

// replayRoutes lists the POST paths whose responses are stored for replay.
// A "*" segment matches exactly one path segment.
var replayRoutes = []struct {
	path string
	ttl  time.Duration
}{
	{"/api/v1/auth/register", standardReplayTTL},
	{"/api/v1/auth/seller/register", standardReplayTTL},
	{"/api/v1/auth/delivery/signup", standardReplayTTL},
	{"/api/v1/products/*/reviews", standardReplayTTL},
	{"/api/v1/seller/products", standardReplayTTL},
	{"/api/v1/seller/orders/*/status", standardReplayTTL},
	{"/api/v1/seller/orders/*/assign", standardReplayTTL},
	{"/api/v1/delivery/orders/*/status", standardReplayTTL},
	{"/api/admin/orders/*/status", standardReplayTTL},
	{"/api/admin/orders/*/assign", standardReplayTTL},
	{"/api/admin/coupons", standardReplayTTL},
	{"/api/v1/create-order", paymentReplayTTL},
	{"/api/v1/checkout", paymentReplayTTL},
}

// storedResponse is what a replay writes back. Status 0 marks a request that
// is still being handled.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// Idempotency replays the first completed response for a repeated
// Idempotency-Key on the routes above. The key is scoped to the caller, so two
// customers can never collide. Requests without the header, and 5xx outcomes,
// are never stored.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			ttl, covered := replayTTL(r.Method, r.URL.Path)
			if store == nil || !covered || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > maxKeyLength {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			fingerprint := hex.EncodeToString(sum[:])
			key := store.IdempotencyKey(callerScope(r), clientKey)

			marker, _ := json.Marshal(storedResponse{Fingerprint: fingerprint})
			claimed, err := store.SetNX(ctx, key, string(marker), inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replay(ctx, store, key, fingerprint, logg, w)
				return
			}

			var sent bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&sent)
			next.ServeHTTP(ww, r)

			if err := store.Del(ctx, key); err != nil {
				logg.Error(ctx, "release idempotency claim", err)
				return
			}
			status := statusOf(ww)
			if status >= http.StatusInternalServerError {
				return
			}
			record, _ := json.Marshal(storedResponse{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        sent.Bytes(),
				Fingerprint: fingerprint,
			})
			if _, err := store.SetNX(ctx, key, string(record), ttl); err != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

func replay(ctx context.Context, store pkgredis.IdempotencyStore, key, fingerprint string, logg *logger.Logger, w http.ResponseWriter) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// claim expired between SetNX and Get
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is still in progress"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case stored.Fingerprint != fingerprint:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "Idempotency-Key reused with a different request body"))
	case stored.Status == 0:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is still in progress"))
	default:
		if stored.ContentType != "" {
			w.Header().Set("Content-Type", stored.ContentType)
		}
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(stored.Status)
		_, _ = w.Write(stored.Body)
	}
}

func callerScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{UserIDFromContext(ctx), RoleFromContext(ctx), r.Method, r.URL.Path}, "|")
}

func replayTTL(method, path string) (time.Duration, bool) {
	if method != http.MethodPost {
		return 0, false
	}
	path = strings.TrimSuffix(path, "/")
	for _, route := range replayRoutes {
		if pathMatches(route.path, path) {
			return route.ttl, true
		}
	}
	return 0, false
}

func pathMatches(pattern, path string) bool {
	want := strings.Split(pattern, "/")
	got := strings.Split(path, "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
		if want[i] == "*" && got[i] == "" {
			return false
		}
	}
	return true
}
