package address

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merchforge/merchforge-backend/pkg/db"
	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/errors"
	"github.com/merchforge/merchforge-backend/pkg/pagination"
)

func setupAddressService(t *testing.T) Service {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Address{}))
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn))
	require.NoError(t, err)
	return svc
}

func homeInput(label string) Input {
	return Input{
		Label:      label,
		FullName:   "Asha Rao",
		Phone:      "+91 90000 00000",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
		Country:    "IN",
	}
}

func defaults(t *testing.T, svc Service, userID uuid.UUID) []uuid.UUID {
	t.Helper()
	rows, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, row := range rows {
		if row.IsDefault {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	svc := setupAddressService(t)
	userID := uuid.New()

	first, err := svc.Create(context.Background(), userID, homeInput(""))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "home", first.Label)

	second, err := svc.Create(context.Background(), userID, homeInput("office"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
	assert.Equal(t, []uuid.UUID{first.ID}, defaults(t, svc, userID))
}

func TestSingleDefaultPerUser(t *testing.T) {
	svc := setupAddressService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, homeInput("home"))
	require.NoError(t, err)
	input := homeInput("office")
	input.IsDefault = true
	second, err := svc.Create(ctx, userID, input)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID}, defaults(t, svc, userID))

	_, err = svc.SetDefault(ctx, userID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID}, defaults(t, svc, userID))

	_, err = svc.SetDefault(ctx, uuid.New(), first.ID)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestUpdateKeepsDefault(t *testing.T) {
	svc := setupAddressService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, homeInput("home"))
	require.NoError(t, err)

	changed := homeInput("home")
	changed.City = "Mysuru"
	updated, err := svc.Update(ctx, userID, first.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", updated.City)
	assert.True(t, updated.IsDefault)

	incomplete := homeInput("home")
	incomplete.PostalCode = ""
	_, err = svc.Update(ctx, userID, first.ID, incomplete)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}

func TestDeletePromotesNewestRemaining(t *testing.T) {
	svc := setupAddressService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, homeInput("home"))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.Create(ctx, userID, homeInput("office"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, first.ID))
	assert.Equal(t, []uuid.UUID{second.ID}, defaults(t, svc, userID))

	err = svc.Delete(ctx, userID, first.ID)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	require.NoError(t, svc.AdminDelete(ctx, second.ID))
	rows, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAdminListPagesAcrossUsers(t *testing.T) {
	svc := setupAddressService(t)
	ctx := context.Background()
	first, second := uuid.New(), uuid.New()
	for _, userID := range []uuid.UUID{first, first, second} {
		_, err := svc.Create(ctx, userID, homeInput(""))
		require.NoError(t, err)
	}

	page, err := svc.AdminList(ctx, nil, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.AdminList(ctx, nil, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextCursor)
	seen := map[uuid.UUID]bool{rest.Items[0].ID: true}
	for _, item := range page.Items {
		seen[item.ID] = true
	}
	assert.Len(t, seen, 3)

	filtered, err := svc.AdminList(ctx, &second, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, second, filtered.Items[0].UserID)

	_, err = svc.AdminList(ctx, nil, pagination.Params{Cursor: "not-a-cursor"})
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}
