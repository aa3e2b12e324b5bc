package memory

import (
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// cloneSlice copies src and keeps nil and empty apart, so documents read back
// serialize the way they were written.
func cloneSlice[T any](src []T) []T {
	if src == nil {
		return nil
	}
	out := make([]T, len(src))
	copy(out, src)
	return out
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

func cloneTask(t *entity.Task) *entity.Task {
	c := *t
	c.DueDate = cloneTime(t.DueDate)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.TimeTracking.TimerStartedAt = cloneTime(t.TimeTracking.TimerStartedAt)
	c.Tags = cloneSlice(t.Tags)
	c.Attachments = cloneSlice(t.Attachments)
	if t.Subtasks != nil {
		c.Subtasks = make([]entity.Subtask, len(t.Subtasks))
		for i, s := range t.Subtasks {
			s.CompletedAt = cloneTime(s.CompletedAt)
			c.Subtasks[i] = s
		}
	}
	return &c
}

func cloneComment(cm *entity.Comment) *entity.Comment {
	c := *cm
	c.Attachments = cloneSlice(cm.Attachments)
	return &c
}

func cloneProject(p *entity.Project) *entity.Project {
	c := *p
	c.StartDate = cloneTime(p.StartDate)
	c.EndDate = cloneTime(p.EndDate)
	c.Members = cloneSlice(p.Members)
	return &c
}

func cloneRoom(r *entity.ChatRoom) *entity.ChatRoom {
	c := *r
	c.Participants = cloneSlice(r.Participants)
	c.LastMessageAt = cloneTime(r.LastMessageAt)
	return &c
}

func cloneMessage(m *entity.Message) *entity.Message {
	c := *m
	c.Attachments = cloneSlice(m.Attachments)
	c.ReadBy = cloneSlice(m.ReadBy)
	c.EditedAt = cloneTime(m.EditedAt)
	return &c
}

func cloneNotification(n *entity.Notification) *entity.Notification {
	c := *n
	c.ReadAt = cloneTime(n.ReadAt)
	return &c
}
