package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/dbtest"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

type stubFinder struct {
	user *models.User
	err  error
}

func (s stubFinder) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	return s.user, s.err
}

func TestRequireActiveRole(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Role: enums.UserRoleAdmin, IsActive: true}
	inactive := &models.User{ID: uuid.New(), Role: enums.UserRoleAdmin}
	vendor := &models.User{ID: uuid.New(), Role: enums.UserRoleVendor, IsActive: true}

	cases := []struct {
		name   string
		finder stubFinder
		id     uuid.UUID
		code   pkgerrors.Code
	}{
		{name: "nil id", finder: stubFinder{user: admin}, id: uuid.Nil, code: pkgerrors.CodeForbidden},
		{name: "missing", finder: stubFinder{err: gorm.ErrRecordNotFound}, id: uuid.New(), code: pkgerrors.CodeForbidden},
		{name: "store error", finder: stubFinder{err: assert.AnError}, id: uuid.New(), code: pkgerrors.CodeDependency},
		{name: "inactive", finder: stubFinder{user: inactive}, id: inactive.ID, code: pkgerrors.CodeForbidden},
		{name: "wrong role", finder: stubFinder{user: vendor}, id: vendor.ID, code: pkgerrors.CodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RequireActiveRole(context.Background(), tc.finder, tc.id, enums.UserRoleAdmin)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}

	got, err := RequireActiveRole(context.Background(), stubFinder{user: admin}, admin.ID, enums.UserRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
}

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	inactive := false

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:     " Vendor@Example.com ",
		FirstName: "Vera",
		LastName:  "Vendor",
		Role:      enums.UserRoleVendor,
		IsActive:  &inactive,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "vendor@example.com", found.Email)
	assert.False(t, found.IsActive)
	assert.Equal(t, enums.UserRoleVendor, found.Role)

	byEmail, err := repo.FindByEmail(ctx, " VENDOR@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "vendor@example.com", FirstName: "V", LastName: "Two", Role: enums.UserRoleVendor})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	dto := FromModel(found)
	assert.Equal(t, created.ID, dto.ID)
	assert.Nil(t, FromModel(nil))
}
