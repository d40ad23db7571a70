package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/enums"
	pkgerrors "github.com/merchforge/merchforge-backend/pkg/errors"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

func setupUsers(t *testing.T) (Service, *Repository) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestProvisionCreatesThenRefreshes(t *testing.T) {
	svc, repo := setupUsers(t)
	ctx := context.Background()

	created, err := svc.Provision(ctx, ProvisionInput{Email: " Ops@Example.com ", Role: enums.UserRoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", created.Email)
	assert.Equal(t, "ops@example.com", created.FullName)
	assert.True(t, created.IsActive)

	promoted, err := svc.Provision(ctx, ProvisionInput{Email: "ops@example.com", FullName: "Ops", Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, created.ID, promoted.ID)
	assert.Equal(t, enums.UserRoleAdmin, promoted.Role)

	active, err := repo.IsActive(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, active)

	missing, err := repo.IsActive(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestProvisionValidation(t *testing.T) {
	svc, _ := setupUsers(t)
	_, err := svc.Provision(context.Background(), ProvisionInput{Email: "nope", Role: enums.UserRoleCustomer})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Provision(context.Background(), ProvisionInput{Email: "a@b.c", Role: "vendor"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateProfileEditsNameAndPhone(t *testing.T) {
	svc, _ := setupUsers(t)
	ctx := context.Background()
	created, err := svc.Provision(ctx, ProvisionInput{Email: "asha@example.com", FullName: "Asha", Role: enums.UserRoleCustomer})
	require.NoError(t, err)

	name := "  Asha Rao "
	phone := "+91 90000 00000"
	updated, err := svc.UpdateProfile(ctx, created.ID, UpdateProfileInput{
		FullName: &name,
		Phone:    types.Optional[string]{Set: true, Value: &phone},
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", updated.FullName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
	assert.Equal(t, enums.UserRoleCustomer, updated.Role)

	cleared, err := svc.UpdateProfile(ctx, created.ID, UpdateProfileInput{Phone: types.Optional[string]{Set: true}})
	require.NoError(t, err)
	assert.Nil(t, cleared.Phone)
	assert.Equal(t, "Asha Rao", cleared.FullName)

	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.Phone)
}

func TestUpdateProfileValidation(t *testing.T) {
	svc, _ := setupUsers(t)
	ctx := context.Background()
	created, err := svc.Provision(ctx, ProvisionInput{Email: "asha@example.com", Role: enums.UserRoleCustomer})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, created.ID, UpdateProfileInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	blank := "   "
	_, err = svc.UpdateProfile(ctx, created.ID, UpdateProfileInput{FullName: &blank})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
