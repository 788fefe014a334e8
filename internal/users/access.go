package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

// Finder loads users by id.
type Finder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RequireActiveRole loads the acting user and checks it is active and holds
// role. Unknown, inactive and wrong-role users are all reported as forbidden.
func RequireActiveRole(ctx context.Context, finder Finder, id uuid.UUID, role enums.UserRole) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor required")
	}
	user, err := finder.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load actor")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor is inactive")
	}
	if user.Role != role {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor lacks role "+role.String())
	}
	return user, nil
}
