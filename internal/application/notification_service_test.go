package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

func TestNotificationLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u", entity.RoleUser)
	other := f.user(t, "other", entity.RoleUser)

	for _, title := range []string{"one", "two", "three"} {
		f.notify.Notify(ctx, entity.Notification{RecipientID: u.ID, SenderID: other.ID, Type: entity.NotifySystem, Title: title})
	}
	// self-addressed notifications are dropped
	f.notify.Notify(ctx, entity.Notification{RecipientID: u.ID, SenderID: u.ID, Type: entity.NotifySystem, Title: "me"})
	assert.Len(t, f.emitter.named(EventNotification), 3)

	count, err := f.notify.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	list, total, err := f.notify.List(ctx, u.ID, true, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)

	_, err = f.notify.MarkRead(ctx, other.ID, list[0].ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	n, err := f.notify.MarkRead(ctx, u.ID, list[0].ID)
	require.NoError(t, err)
	assert.True(t, n.Read)
	count, err = f.notify.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	changed, err := f.notify.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)
	count, err = f.notify.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, f.notify.Delete(ctx, other.ID, list[1].ID), ErrNotificationNotFound)
	require.NoError(t, f.notify.Delete(ctx, u.ID, list[1].ID))
	_, total, err = f.notify.List(ctx, u.ID, false, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestDashboardCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u", entity.RoleUser)
	p := f.project(t, u, nil)

	_, err := f.tasks.Create(ctx, u, TaskInput{Title: strPtr("a"), ProjectID: &p.ID, AssigneeID: &u.ID})
	require.NoError(t, err)
	high := entity.PriorityHigh
	_, err = f.tasks.Create(ctx, u, TaskInput{Title: strPtr("b"), Priority: &high})
	require.NoError(t, err)

	d, err := f.board.Get(ctx, u)
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.Tasks.Total)
	assert.EqualValues(t, 2, d.Tasks.ByStatus[entity.TaskTodo])
	assert.EqualValues(t, 1, d.Tasks.ByPriority[entity.PriorityHigh])
	assert.EqualValues(t, 1, d.AssignedToMe)
	assert.Zero(t, d.Overdue)
	assert.Equal(t, 1, d.Projects)
	assert.NotEmpty(t, d.RecentActivity)
	assert.LessOrEqual(t, len(d.RecentActivity), recentActivityLimit)
}
