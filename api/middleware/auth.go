package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mwhitfield/wishlist-backend/api/responses"
	pkgAuth "github.com/mwhitfield/wishlist-backend/pkg/auth"
	"github.com/mwhitfield/wishlist-backend/pkg/auth/session"
	"github.com/mwhitfield/wishlist-backend/pkg/config"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
	"github.com/mwhitfield/wishlist-backend/pkg/logger"
	"github.com/mwhitfield/wishlist-backend/pkg/types"
)

// Auth validates a bearer token and seeds the request context with the actor.
// Every session kind carries the same claim shape; the role tag decides what
// downstream guards allow.
func Auth(cfg config.JWTConfig, verifier session.SessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxActor, types.Actor{
				ID:   claims.SubjectID,
				Role: claims.Role,
			})
			ctx = context.WithValue(ctx, ctxSessionID, claims.ID)
			if claims.Route != nil {
				ctx = context.WithValue(ctx, ctxRoute, *claims.Route)
			}

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.SubjectID.String())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
				if claims.Route != nil {
					ctx = logg.WithRoute(ctx, *claims.Route)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
