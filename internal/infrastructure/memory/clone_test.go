package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

func TestTaskEmptyListsSurviveRoundTrip(t *testing.T) {
	repo := NewTaskRepository(Open())
	task := &entity.Task{
		Title:       "Write docs",
		CreatorID:   "u1",
		Priority:    entity.PriorityMedium,
		Status:      entity.TaskTodo,
		Tags:        []string{},
		Subtasks:    []entity.Subtask{},
		Attachments: []entity.Attachment{},
	}
	require.NoError(t, repo.Create(context.Background(), task))

	got, err := repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tags":[]`)
	assert.Contains(t, string(raw), `"subtasks":[]`)
	assert.Contains(t, string(raw), `"attachments":[]`)
}

func TestMessageAndCommentEmptyListsSurviveRoundTrip(t *testing.T) {
	db := Open()
	ctx := context.Background()

	chat := NewChatRepository(db)
	msg := &entity.Message{RoomID: "r1", SenderID: "u1", Content: "hi", Attachments: []entity.Attachment{}, ReadBy: []entity.ReadReceipt{}}
	require.NoError(t, chat.CreateMessage(ctx, msg))
	msgs, err := chat.ListMessages(ctx, "r1", time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.NotNil(t, msgs[0].Attachments)
	assert.NotNil(t, msgs[0].ReadBy)

	comments := NewCommentRepository(db)
	cm := &entity.Comment{TaskID: "t1", AuthorID: "u1", Content: "looks good", Attachments: []entity.Attachment{}}
	require.NoError(t, comments.Create(ctx, cm))
	list, _, err := comments.ListByTask(ctx, "t1", 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].Attachments)
}

func TestCloneSliceKeepsNil(t *testing.T) {
	assert.Nil(t, cloneSlice[string](nil))
	src := []string{"a"}
	cp := cloneSlice(src)
	cp[0] = "b"
	assert.Equal(t, "a", src[0])
}
