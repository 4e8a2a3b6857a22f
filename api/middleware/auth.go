package middleware

import (
	"context"
	"net/http"

	"github.com/sabjimart/sabji-backend/api/responses"
	pkgAuth "github.com/sabjimart/sabji-backend/pkg/auth"
	"github.com/sabjimart/sabji-backend/pkg/auth/session"
	"github.com/sabjimart/sabji-backend/pkg/config"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

const authHeader = "Authorization"

// Auth rejects requests without a valid access token whose session is still
// live, and puts the caller's Principal on the context.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authWith(cfg, sessions, logg, false)
}

// OptionalAuth lets anonymous requests through untouched. A presented token
// is still verified.
func OptionalAuth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authWith(cfg, sessions, logg, true)
}

func authWith(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger, anonymousOK bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := pkgAuth.BearerToken(r.Header.Get(authHeader))
			if !present && anonymousOK {
				next.ServeHTTP(w, r)
				return
			}
			if !present {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			principal, err := authenticate(r.Context(), cfg, sessions, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			ctx = logg.WithFields(ctx, map[string]any{
				"user_id":    principal.ID.String(),
				"actor_role": string(principal.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, sessions session.AccessSessionChecker, token string) (Principal, error) {
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	// a nil checker trusts the signature alone
	if sessions != nil {
		live, err := sessions.HasSession(ctx, claims.ID)
		if err != nil {
			return Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !live {
			return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}
	return Principal{ID: claims.UserID, Role: claims.Role, AccessID: claims.ID}, nil
}
