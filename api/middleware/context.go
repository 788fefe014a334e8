package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/pkg/enums"
)

// Principal is the caller a request acts for.
type Principal struct {
	ID   uuid.UUID
	Role enums.UserRole
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom reports false when Actor did not run for this request.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.ID != uuid.Nil
}
