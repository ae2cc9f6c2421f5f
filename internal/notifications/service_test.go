package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesalehub-backend/pkg/errors"
)

func seedNotifications(t *testing.T, conn *gorm.DB, userID uuid.UUID, n int) []models.Notification {
	t.Helper()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := make([]models.Notification, 0, n)
	for i := 0; i < n; i++ {
		row := models.Notification{
			UserID:    userID,
			Type:      enums.NotificationTypeOrderStatus,
			Title:     "Order status updated",
			Message:   "status changed",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(&row).Error)
		rows = append(rows, row)
	}
	return rows
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestListPagesNewestFirst(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.SeedUser(t, conn, enums.RoleRetailer)
	other := dbtest.SeedUser(t, conn, enums.RoleRetailer)
	rows := seedNotifications(t, conn, user.ID, 5)
	seedNotifications(t, conn, other.ID, 2)

	ctx := context.Background()
	first, err := svc.List(ctx, ListParams{UserID: user.ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	assert.Equal(t, rows[4].ID, first.Items[0].ID)
	assert.Equal(t, rows[2].ID, first.Items[2].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(ctx, ListParams{UserID: user.ID, Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, rows[1].ID, second.Items[0].ID)
	assert.Equal(t, rows[0].ID, second.Items[1].ID)
	assert.Empty(t, second.NextCursor)
}

func TestListUnreadOnly(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.SeedUser(t, conn, enums.RoleWholesaler)
	rows := seedNotifications(t, conn, user.ID, 3)

	ctx := context.Background()
	require.NoError(t, svc.MarkRead(ctx, user.ID, rows[1].ID))

	result, err := svc.List(ctx, ListParams{UserID: user.ID, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	for _, item := range result.Items {
		assert.Nil(t, item.ReadAt)
		assert.NotEqual(t, rows[1].ID, item.ID)
	}
}

func TestListRejectsBadInput(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.SeedUser(t, conn, enums.RoleRetailer)

	_, err := svc.List(context.Background(), ListParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(context.Background(), ListParams{UserID: user.ID, Cursor: "not-a-cursor"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMarkReadIsScopedToOwner(t *testing.T) {
	svc, conn := newTestService(t)
	owner := dbtest.SeedUser(t, conn, enums.RoleRetailer)
	stranger := dbtest.SeedUser(t, conn, enums.RoleRetailer)
	row := seedNotifications(t, conn, owner.ID, 1)[0]

	ctx := context.Background()
	err := svc.MarkRead(ctx, stranger.ID, row.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.MarkRead(ctx, owner.ID, row.ID))
	// second read is a no-op
	require.NoError(t, svc.MarkRead(ctx, owner.ID, row.ID))

	var stored models.Notification
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	assert.NotNil(t, stored.ReadAt)

	err = svc.MarkRead(ctx, owner.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMarkAllRead(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.SeedUser(t, conn, enums.RoleRetailer)
	other := dbtest.SeedUser(t, conn, enums.RoleRetailer)
	seedNotifications(t, conn, user.ID, 4)
	seedNotifications(t, conn, other.ID, 1)

	ctx := context.Background()
	count, err := svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	count, err = svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	var unread int64
	require.NoError(t, conn.Model(&models.Notification{}).Where("user_id = ? AND read_at IS NULL", other.ID).Count(&unread).Error)
	assert.Equal(t, int64(1), unread)
}
