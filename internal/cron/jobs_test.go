package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merchforge/merchforge-backend/internal/cart"
	"github.com/merchforge/merchforge-backend/internal/notifications"
	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Notification{}, &models.Cart{}, &models.CartItem{}))
	return conn
}

func TestNotificationCleanupRemovesOnlyOldReadRows(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	userID := uuid.New()
	old := time.Now().UTC().Add(-60 * 24 * time.Hour)
	readAt := old.Add(time.Hour)

	rows := []*models.Notification{
		{UserID: userID, Type: enums.NotificationTypeOrderPlaced, Title: "old read", Message: "m", ReadAt: &readAt},
		{UserID: userID, Type: enums.NotificationTypeOrderPlaced, Title: "old unread", Message: "m"},
		{UserID: userID, Type: enums.NotificationTypeOrderPlaced, Title: "new read", Message: "m", ReadAt: &readAt},
	}
	for _, row := range rows {
		require.NoError(t, conn.Create(row).Error)
	}
	for _, row := range rows[:2] {
		require.NoError(t, conn.Model(row).UpdateColumn("created_at", old).Error)
	}

	job, err := NewNotificationCleanupJob(notifications.NewRepository(conn), 30*24*time.Hour)
	require.NoError(t, err)
	removed, err := job.Run(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	var titles []string
	require.NoError(t, conn.Model(&models.Notification{}).Order("title").Pluck("title", &titles).Error)
	assert.Equal(t, []string{"new read", "old unread"}, titles)
}

func TestStaleCartCleanupRemovesCartsAndItems(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := cart.NewRepository(conn)

	stale := &models.Cart{UserID: uuid.New()}
	fresh := &models.Cart{UserID: uuid.New()}
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.CreateItem(ctx, &models.CartItem{CartID: stale.ID, ProductID: uuid.New(), Quantity: 2}))
	require.NoError(t, repo.CreateItem(ctx, &models.CartItem{CartID: fresh.ID, ProductID: uuid.New(), Quantity: 1}))
	require.NoError(t, conn.Model(stale).UpdateColumn("updated_at", time.Now().UTC().Add(-90*24*time.Hour)).Error)

	job, err := NewStaleCartCleanupJob(repo, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "stale-cart-cleanup", job.Name())
	removed, err := job.Run(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	var carts, items int64
	require.NoError(t, conn.Model(&models.Cart{}).Count(&carts).Error)
	require.NoError(t, conn.Model(&models.CartItem{}).Count(&items).Error)
	assert.EqualValues(t, 1, carts)
	assert.EqualValues(t, 1, items)
}

func TestJobConstructorsValidate(t *testing.T) {
	_, err := NewNotificationCleanupJob(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewStaleCartCleanupJob(cart.NewRepository(newTestDB(t)), 0)
	assert.Error(t, err)
}
