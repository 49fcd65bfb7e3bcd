package service

import (
	"context"
	"testing"

	"anoa.com/learnhub/internal/entity"
	notifRepo "anoa.com/learnhub/internal/modules/notification/repository"
	"anoa.com/learnhub/internal/testutil"
	"anoa.com/learnhub/pkg/apperror"
	"anoa.com/learnhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(notifRepo.NewNotificationRepository(db), nil, logger.Nop())
	ctx := context.Background()

	userID := uuid.New()
	other := uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.CreateNotification(ctx, &entity.Notification{
			UserID:     userID,
			EntityID:   uuid.New(),
			EntityType: "course",
			Type:       entity.NotificationAccessGranted,
			Message:    "granted",
		}))
	}

	count, err := svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	list, err := svc.GetNotifications(ctx, userID, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.ErrorIs(t, svc.MarkAsRead(ctx, other, list[0].ID), apperror.ErrNotFound)
	require.NoError(t, svc.MarkAsRead(ctx, userID, list[0].ID))

	count, err = svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.MarkAllAsRead(ctx, userID))
	count, err = svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)

	empty, err := svc.GetNotifications(ctx, other, 20, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	assert.Equal(t, "user_notifications:11111111-1111-1111-1111-111111111111", Channel(id))
}
