package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
	repoMocks "mangoapi/internal/repository/mocks"
)

func newNotificationService() (NotificationService, *repoMocks.MockNotificationRepository, *repoMocks.MockImageRepository, *repoMocks.MockUserRepository) {
	notifs := new(repoMocks.MockNotificationRepository)
	images := new(repoMocks.MockImageRepository)
	users := new(repoMocks.MockUserRepository)
	return NewNotificationService(notifs, images, users), notifs, images, users
}

func TestNotificationService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("plain listing", func(t *testing.T) {
		svc, notifs, _, _ := newNotificationService()
		notifs.On("List", ctx, repository.PageQuery{Limit: 20, Offset: 0}).
			Return(&repository.PageResult[model.Notification]{Items: []model.Notification{{ID: "n"}}, Total: 1}, nil)

		res, err := svc.List(ctx, 1, 20, false)

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Zero(t, res.Created)
	})

	t.Run("create_new backfills unnotified images", func(t *testing.T) {
		svc, notifs, images, users := newNotificationService()
		users.On("FindFirstStaff", ctx).Return(&model.User{ID: "admin-id", IsStaff: true}, nil)
		images.On("ListWithoutNotification", ctx).Return([]model.MangoImage{
			{ID: "img-1", OriginalFilename: "a.jpg", PredictedClass: "Anthracnose"},
			{ID: "img-2", OriginalFilename: "b.jpg", PredictedClass: "Healthy"},
		}, nil)
		notifs.On("Create", ctx, mock.MatchedBy(func(n *model.Notification) bool {
			return n.NotificationType == model.NotificationImageUpload && n.UserID == "admin-id"
		})).Return(&model.Notification{ID: "new"}, nil).Twice()
		notifs.On("List", ctx, repository.PageQuery{Limit: 20, Offset: 0}).
			Return(&repository.PageResult[model.Notification]{Items: nil, Total: 2}, nil)

		res, err := svc.List(ctx, 1, 20, true)

		assert.NoError(t, err)
		assert.Equal(t, 2, res.Created)
		notifs.AssertExpectations(t)
	})

	t.Run("create_new with no staff is a no-op", func(t *testing.T) {
		svc, notifs, _, users := newNotificationService()
		users.On("FindFirstStaff", ctx).Return(nil, sql.ErrNoRows)
		notifs.On("List", ctx, mock.Anything).
			Return(&repository.PageResult[model.Notification]{Items: nil, Total: 0}, nil)

		res, err := svc.List(ctx, 1, 20, true)

		assert.NoError(t, err)
		assert.Zero(t, res.Created)
	})
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		svc, notifs, _, _ := newNotificationService()
		notifs.On("MarkRead", ctx, "n-id").Return(nil)

		assert.NoError(t, svc.MarkRead(ctx, "n-id"))
	})

	t.Run("missing", func(t *testing.T) {
		svc, notifs, _, _ := newNotificationService()
		notifs.On("MarkRead", ctx, "ghost").Return(sql.ErrNoRows)

		assert.ErrorIs(t, svc.MarkRead(ctx, "ghost"), ErrNotificationNotFound)
	})
}

func TestNotificationService_DeleteSelected(t *testing.T) {
	ctx := context.Background()

	t.Run("returns deleted titles", func(t *testing.T) {
		svc, notifs, _, _ := newNotificationService()
		ids := []string{"n-1", "n-2"}
		notifs.On("ListByIDs", ctx, ids).Return([]model.Notification{
			{ID: "n-1", Title: "New Image Upload"},
			{ID: "n-2", Title: "System"},
		}, nil)
		notifs.On("DeleteByIDs", ctx, ids).Return(int64(2), nil)

		titles, err := svc.DeleteSelected(ctx, ids)

		assert.NoError(t, err)
		assert.Equal(t, []string{"New Image Upload", "System"}, titles)
	})

	t.Run("empty ids rejected", func(t *testing.T) {
		svc, _, _, _ := newNotificationService()

		_, err := svc.DeleteSelected(ctx, nil)

		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}
