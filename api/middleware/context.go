package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	"github.com/mwhitfield/wishlist-backend/pkg/types"
)

type contextKey string

const (
	ctxActor     contextKey = "actor"
	ctxSessionID contextKey = "session_id"
	ctxRoute     contextKey = "route"
)

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (types.Actor, bool) {
	if ctx == nil {
		return types.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(types.Actor)
	return actor, ok
}

// SessionIDFromContext returns the jti of the presented token.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// RouteFromContext returns the wishlist slug carried by route sessions.
func RouteFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRoute).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the actor into the context. Exposed for handler tests.
func WithActor(ctx context.Context, id uuid.UUID, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, types.Actor{ID: id, Role: role})
}

// WithSessionID injects the session id into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}
