package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/api/responses"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
)

const (
	ActorIDHeader   = "X-Actor-Id"
	ActorRoleHeader = "X-Actor-Role"
)

// Actor trusts the identity headers set by the gateway. Services still load
// the user row to confirm role and status.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := principalFromHeaders(r.Header)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := WithPrincipal(r.Context(), p)
			if logg != nil {
				ctx = logg.WithUserID(ctx, p.ID.String())
				ctx = logg.WithActorRole(ctx, p.Role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func principalFromHeaders(h http.Header) (Principal, error) {
	rawID := strings.TrimSpace(h.Get(ActorIDHeader))
	rawRole := strings.ToLower(strings.TrimSpace(h.Get(ActorRoleHeader)))
	if rawID == "" || rawRole == "" {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor headers")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor id")
	}
	role, err := enums.ParseUserRole(rawRole)
	if err != nil {
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}
	return Principal{ID: id, Role: role}, nil
}

// RequireRole admits principals holding any of roles. It must run after Actor.
func RequireRole(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
				return
			}
			if !slices.Contains(roles, p.Role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted for this route"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
