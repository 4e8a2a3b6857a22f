package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxAccessID contextKey = "access_id"
)

// Principal is the authenticated actor resolved once per request.
type Principal struct {
	ID       uuid.UUID
	Role     enums.Role
	AccessID string
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// PrincipalFromContext returns the authenticated principal, or ok=false when Auth did not run.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return Principal{}, false
	}
	role := enums.Role(RoleFromContext(ctx))
	if !role.IsValid() {
		return Principal{}, false
	}
	return Principal{ID: id, Role: role, AccessID: AccessIDFromContext(ctx)}, true
}

// WithPrincipal seeds ctx with an authenticated actor.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, p.ID.String())
	ctx = context.WithValue(ctx, ctxRole, string(p.Role))
	if p.AccessID != "" {
		ctx = context.WithValue(ctx, ctxAccessID, p.AccessID)
	}
	return ctx
}
