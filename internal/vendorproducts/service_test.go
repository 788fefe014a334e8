package vendorproducts

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/internal/baseproducts"
	"github.com/printforge/printforge-backend/internal/designs"
	"github.com/printforge/printforge-backend/internal/users"
	"github.com/printforge/printforge-backend/pkg/db/dbtest"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(conn),
		Tx:           client,
		Users:        users.NewRepository(conn),
		BaseProducts: baseproducts.NewRepository(conn),
		Designs:      designs.NewRepository(conn),
		Logger:       logger.New(logger.Options{ServiceName: "vendorproducts-test", Output: &bytes.Buffer{}}),
	})
	require.NoError(t, err)
	return svc, conn
}

func action(a enums.PostValidationAction) *enums.PostValidationAction { return &a }

func TestCreateVendorProduct_LinksDesign(t *testing.T) {
	svc, conn := newTestService(t)
	vendor := dbtest.MustCreateUser(t, conn, enums.UserRoleVendor)
	base := dbtest.MustCreateBaseProduct(t, conn, "15.00")
	design := dbtest.MustCreateDesign(t, conn, vendor.ID)

	dto, err := svc.CreateVendorProduct(context.Background(), vendor.ID, CreateVendorProductInput{
		BaseProductID:        base.ID,
		DesignID:             design.ID,
		Name:                 "Lake Hoodie",
		Price:                decimal.RequireFromString("15.00"),
		PostValidationAction: action(enums.PostValidationAutoPublish),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.VendorProductStatusPending, dto.Status)
	assert.False(t, dto.IsValidated)
	require.NotNil(t, dto.DesignID)
	assert.Equal(t, design.ID, *dto.DesignID)
	assert.Equal(t, int64(1), dbtest.CountLinks(t, conn, design.ID, dto.ID))
}

func TestCreateVendorProduct_Rules(t *testing.T) {
	svc, conn := newTestService(t)
	admin := dbtest.MustCreateUser(t, conn, enums.UserRoleAdmin)
	vendor := dbtest.MustCreateUser(t, conn, enums.UserRoleVendor)
	other := dbtest.MustCreateUser(t, conn, enums.UserRoleVendor)
	base := dbtest.MustCreateBaseProduct(t, conn, "15.00")
	retired := dbtest.MustCreateBaseProduct(t, conn, "5.00")
	require.NoError(t, conn.Model(retired).Update("is_active", false).Error)
	own := dbtest.MustCreateDesign(t, conn, vendor.ID)
	foreign := dbtest.MustCreateDesign(t, conn, other.ID)
	rejected := dbtest.MustCreateDesign(t, conn, vendor.ID, dbtest.Rejected(admin.ID, "copyright"))

	valid := CreateVendorProductInput{BaseProductID: base.ID, DesignID: own.ID, Name: "Tee", Price: decimal.RequireFromString("20")}
	with := func(mut func(*CreateVendorProductInput)) CreateVendorProductInput {
		in := valid
		mut(&in)
		return in
	}

	cases := []struct {
		name   string
		vendor uuid.UUID
		input  CreateVendorProductInput
		code   pkgerrors.Code
	}{
		{"admin cannot create", admin.ID, valid, pkgerrors.CodeForbidden},
		{"missing name", vendor.ID, with(func(in *CreateVendorProductInput) { in.Name = " " }), pkgerrors.CodeValidation},
		{"unknown base", vendor.ID, with(func(in *CreateVendorProductInput) { in.BaseProductID = uuid.New() }), pkgerrors.CodeNotFound},
		{"inactive base", vendor.ID, with(func(in *CreateVendorProductInput) { in.BaseProductID = retired.ID }), pkgerrors.CodeNotFound},
		{"unknown design", vendor.ID, with(func(in *CreateVendorProductInput) { in.DesignID = uuid.New() }), pkgerrors.CodeNotFound},
		{"foreign design", vendor.ID, with(func(in *CreateVendorProductInput) { in.DesignID = foreign.ID }), pkgerrors.CodeForbidden},
		{"rejected design", vendor.ID, with(func(in *CreateVendorProductInput) { in.DesignID = rejected.ID }), pkgerrors.CodeStateConflict},
		{"below base price", vendor.ID, with(func(in *CreateVendorProductInput) { in.Price = decimal.RequireFromString("14.99") }), pkgerrors.CodeValidation},
		{"bad action", vendor.ID, with(func(in *CreateVendorProductInput) { in.PostValidationAction = action("publish_now") }), pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateVendorProduct(context.Background(), tc.vendor, tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.As(err).Code())
		})
	}

	products, err := svc.ListVendorProducts(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestUpdatePostValidationAction(t *testing.T) {
	svc, conn := newTestService(t)
	vendor := dbtest.MustCreateUser(t, conn, enums.UserRoleVendor)
	other := dbtest.MustCreateUser(t, conn, enums.UserRoleVendor)
	base := dbtest.MustCreateBaseProduct(t, conn, "15.00")
	pending := dbtest.MustCreateVendorProduct(t, conn, vendor.ID, base.ID)
	drafted := dbtest.MustCreateVendorProduct(t, conn, vendor.ID, base.ID,
		dbtest.WithStatus(enums.VendorProductStatusDraft, true))

	dto, err := svc.UpdatePostValidationAction(context.Background(), vendor.ID, pending.ID, action(enums.PostValidationAutoPublish))
	require.NoError(t, err)
	require.NotNil(t, dto.PostValidationAction)
	assert.Equal(t, enums.PostValidationAutoPublish, *dto.PostValidationAction)
	reloaded := dbtest.MustReloadProduct(t, conn, pending.ID)
	require.NotNil(t, reloaded.PostValidationAction)
	assert.Equal(t, enums.PostValidationAutoPublish, *reloaded.PostValidationAction)

	_, err = svc.UpdatePostValidationAction(context.Background(), vendor.ID, pending.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, dbtest.MustReloadProduct(t, conn, pending.ID).PostValidationAction)

	_, err = svc.UpdatePostValidationAction(context.Background(), vendor.ID, drafted.ID, action(enums.PostValidationAutoPublish))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.UpdatePostValidationAction(context.Background(), other.ID, pending.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestDeleteVendorProduct(t *testing.T) {
	svc, conn := newTestService(t)
	vendor := dbtest.MustCreateUser(t, conn, enums.UserRoleVendor)
	base := dbtest.MustCreateBaseProduct(t, conn, "15.00")
	design := dbtest.MustCreateDesign(t, conn, vendor.ID)
	product := dbtest.MustCreateVendorProduct(t, conn, vendor.ID, base.ID, dbtest.WithDesign(design.ID))
	dbtest.MustLink(t, conn, design.ID, product.ID)

	require.NoError(t, svc.DeleteVendorProduct(context.Background(), vendor.ID, product.ID))
	assert.True(t, dbtest.MustReloadProduct(t, conn, product.ID).DeletedAt.Valid)
	assert.Zero(t, dbtest.CountLinks(t, conn, design.ID, product.ID))

	err := svc.DeleteVendorProduct(context.Background(), vendor.ID, product.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	products, err := svc.ListVendorProducts(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.Empty(t, products)
}
