package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

func TestTaskCreateVisibleToProjectMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.RoleUser)
	member := f.user(t, "member", entity.RoleUser)
	outsider := f.user(t, "outsider", entity.RoleUser)
	p := f.project(t, owner, map[string]entity.MemberRole{member.ID: entity.MemberRegular})

	task, err := f.tasks.Create(ctx, owner, TaskInput{Title: strPtr("Write report"), ProjectID: &p.ID})
	require.NoError(t, err)
	assert.Equal(t, entity.TaskTodo, task.Status)
	assert.Equal(t, entity.PriorityMedium, task.Priority)
	assert.Equal(t, owner.ID, task.CreatorID)

	list, total, err := f.tasks.List(ctx, member, TaskQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, task.ID, list[0].ID)

	list, total, err = f.tasks.List(ctx, outsider, TaskQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	_, err = f.tasks.Get(ctx, outsider, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	created := f.emitter.named(EventTaskCreated)
	require.Len(t, created, 1)
	assert.Equal(t, p.ID, created[0].Project)
}

func TestTaskCreateRequiresContributor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.RoleUser)
	viewer := f.user(t, "viewer", entity.RoleUser)
	p := f.project(t, owner, map[string]entity.MemberRole{viewer.ID: entity.MemberViewer})

	_, err := f.tasks.Create(ctx, viewer, TaskInput{Title: strPtr("Nope"), ProjectID: &p.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	missing := "does-not-exist"
	_, err = f.tasks.Create(ctx, owner, TaskInput{Title: strPtr("Nope"), ProjectID: &missing})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestTaskCreateRejectsInvalidFields(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "u", entity.RoleUser)

	_, err := f.tasks.Create(context.Background(), u, TaskInput{Title: strPtr(strings.Repeat("x", 201))})
	ve, ok := entity.IsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Contains(t, ve.Fields, "title")

	bad := entity.TaskPriority("whenever")
	_, err = f.tasks.Create(context.Background(), u, TaskInput{Title: strPtr("ok"), Priority: &bad})
	ve, ok = entity.IsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "priority")
}

func TestTaskAssignmentNotifiesAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.RoleUser)
	member := f.user(t, "member", entity.RoleUser)
	stranger := f.user(t, "stranger", entity.RoleUser)
	p := f.project(t, owner, map[string]entity.MemberRole{member.ID: entity.MemberRegular})

	_, err := f.tasks.Create(ctx, owner, TaskInput{Title: strPtr("x"), ProjectID: &p.ID, AssigneeID: &stranger.ID})
	assert.ErrorIs(t, err, ErrNotMember)

	task, err := f.tasks.Create(ctx, owner, TaskInput{Title: strPtr("Review"), ProjectID: &p.ID, AssigneeID: &member.ID})
	require.NoError(t, err)

	n, err := f.notify.UnreadCount(ctx, member.ID)
	require.NoError(t, err)
	// one project invite plus the assignment
	assert.EqualValues(t, 2, n)

	assigned := f.emitter.named(EventTaskAssigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, []string{member.ID}, assigned[0].Users)

	// the assignee editing notifies the creator, not themselves
	_, err = f.tasks.Update(ctx, member, task.ID, TaskInput{Description: strPtr("more detail")})
	require.NoError(t, err)
	n, err = f.notify.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = f.notify.UnreadCount(ctx, member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestTaskStatusTracksCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u", entity.RoleUser)
	task, err := f.tasks.Create(ctx, u, TaskInput{Title: strPtr("ship")})
	require.NoError(t, err)

	task, err = f.tasks.UpdateStatus(ctx, u, task.ID, entity.TaskDone)
	require.NoError(t, err)
	assert.NotNil(t, task.CompletedAt)

	task, err = f.tasks.UpdateStatus(ctx, u, task.ID, entity.TaskInProgress)
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)
}

func TestTaskTimer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u", entity.RoleUser)
	task, err := f.tasks.Create(ctx, u, TaskInput{Title: strPtr("track me")})
	require.NoError(t, err)

	_, err = f.tasks.StopTimer(ctx, u, task.ID)
	assert.ErrorIs(t, err, ErrTimerNotRunning)

	_, err = f.tasks.StartTimer(ctx, u, task.ID)
	require.NoError(t, err)
	_, err = f.tasks.StartTimer(ctx, u, task.ID)
	assert.ErrorIs(t, err, ErrTimerRunning)

	task, err = f.tasks.StopTimer(ctx, u, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, task.TimeTracking.LoggedMinutes)
	assert.Nil(t, task.TimeTracking.TimerStartedAt)

	task, err = f.tasks.LogTime(ctx, u, task.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, 31, task.TimeTracking.LoggedMinutes)

	_, err = f.tasks.LogTime(ctx, u, task.ID, 0)
	_, ok := entity.IsValidationError(err)
	assert.True(t, ok)

	_, err = f.tasks.LogTime(ctx, u, task.ID, MaxLogMinutes+1)
	ve, ok := entity.IsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "minutes")

	task, err = f.tasks.LogTime(ctx, u, task.ID, MaxLogMinutes)
	require.NoError(t, err)
	assert.Equal(t, 31+MaxLogMinutes, task.TimeTracking.LoggedMinutes)
}

func TestElapsedMinutes(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, elapsedMinutes(start, start.Add(10*time.Second)))
	assert.Equal(t, 2, elapsedMinutes(start, start.Add(2*time.Minute+59*time.Second)))
}

func TestTaskSubtasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u", entity.RoleUser)
	task, err := f.tasks.Create(ctx, u, TaskInput{Title: strPtr("parent")})
	require.NoError(t, err)

	task, err = f.tasks.AddSubtask(ctx, u, task.ID, "child")
	require.NoError(t, err)
	require.Len(t, task.Subtasks, 1)
	sid := task.Subtasks[0].ID

	done := true
	task, err = f.tasks.UpdateSubtask(ctx, u, task.ID, sid, SubtaskInput{Completed: &done})
	require.NoError(t, err)
	assert.True(t, task.Subtasks[0].Completed)
	assert.NotNil(t, task.Subtasks[0].CompletedAt)

	_, err = f.tasks.UpdateSubtask(ctx, u, task.ID, "missing", SubtaskInput{Completed: &done})
	assert.ErrorIs(t, err, ErrSubtaskNotFound)

	task, err = f.tasks.DeleteSubtask(ctx, u, task.ID, sid)
	require.NoError(t, err)
	assert.Empty(t, task.Subtasks)
}

func TestTaskCommentsNotifyWatchersAndCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.RoleUser)
	member := f.user(t, "member", entity.RoleUser)
	p := f.project(t, owner, map[string]entity.MemberRole{member.ID: entity.MemberRegular})
	task, err := f.tasks.Create(ctx, owner, TaskInput{Title: strPtr("discuss"), ProjectID: &p.ID, AssigneeID: &member.ID})
	require.NoError(t, err)

	before, err := f.notify.UnreadCount(ctx, member.ID)
	require.NoError(t, err)

	c, err := f.tasks.AddComment(ctx, owner, task.ID, "thoughts?", nil)
	require.NoError(t, err)

	after, err := f.notify.UnreadCount(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
	ownerCount, err := f.notify.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, ownerCount)
	assert.Len(t, f.emitter.named(EventCommentNew), 1)

	got, err := f.tasks.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentCount)

	_, err = f.tasks.UpdateComment(ctx, member, task.ID, c.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.tasks.Delete(ctx, owner, task.ID))
	_, total, err := f.comments.ListByTask(ctx, task.ID, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestProjectlessTaskVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creator := f.user(t, "creator", entity.RoleUser)
	manager := f.user(t, "manager", entity.RoleManager)
	other := f.user(t, "other", entity.RoleUser)

	task, err := f.tasks.Create(ctx, creator, TaskInput{Title: strPtr("personal")})
	require.NoError(t, err)

	_, err = f.tasks.Get(ctx, manager, task.ID)
	assert.NoError(t, err)
	_, err = f.tasks.Get(ctx, other, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, total, err := f.tasks.List(ctx, manager, TaskQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	err = f.tasks.Delete(ctx, manager, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTaskListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u", entity.RoleUser)
	peer := f.user(t, "peer", entity.RoleUser)
	p := f.project(t, u, map[string]entity.MemberRole{peer.ID: entity.MemberRegular})

	past := time.Now().Add(-48 * time.Hour)
	_, err := f.tasks.Create(ctx, u, TaskInput{Title: strPtr("late"), ProjectID: &p.ID, DueDate: &past})
	require.NoError(t, err)
	_, err = f.tasks.Create(ctx, u, TaskInput{Title: strPtr("mine"), ProjectID: &p.ID, AssigneeID: &u.ID})
	require.NoError(t, err)
	done := entity.TaskDone
	_, err = f.tasks.Create(ctx, u, TaskInput{Title: strPtr("late but done"), ProjectID: &p.ID, DueDate: &past, Status: &done})
	require.NoError(t, err)

	overdue, total, err := f.tasks.List(ctx, peer, TaskQuery{Overdue: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "late", overdue[0].Title)

	mine, _, err := f.tasks.List(ctx, u, TaskQuery{Mine: true})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Title)

	found, err := f.tasks.Search(ctx, peer, "LATE", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	paged, total, err := f.tasks.List(ctx, u, TaskQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, paged, 1)
}

func TestAttachToTaskWithoutStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u", entity.RoleUser)
	task, err := f.tasks.Create(ctx, u, TaskInput{Title: strPtr("files")})
	require.NoError(t, err)

	_, err = f.files.AttachToTask(ctx, u, task.ID, Upload{Filename: "a.txt", Size: 3, Body: strings.NewReader("abc")})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
