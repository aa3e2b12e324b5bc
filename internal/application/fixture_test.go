package application

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/infrastructure/memory"
)

type sentEvent struct {
	Users   []string
	Skip    string
	Project string
	Event   string
	Data    any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeEmitter) ToUsers(ids []string, skip, event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{Users: append([]string(nil), ids...), Skip: skip, Event: event, Data: data})
}

func (f *fakeEmitter) ToProject(projectID, event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{Project: projectID, Event: event, Data: data})
}

func (f *fakeEmitter) named(event string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type fakeTyping struct {
	mu      sync.Mutex
	cleared []string
}

func (f *fakeTyping) Clear(roomID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, roomID+"/"+userID)
}

type fixture struct {
	db       *memory.DB
	emitter  *fakeEmitter
	typing   *fakeTyping
	users    *memory.UserRepository
	comments *memory.CommentRepository
	notify   *NotificationService
	activity *ActivityService
	projects *ProjectService
	tasks    *TaskService
	chat     *ChatService
	files    *FileService
	board    *DashboardService
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.Open()
	em := &fakeEmitter{}
	log := quietLogger()

	f := &fixture{db: db, emitter: em, typing: &fakeTyping{}}
	f.users = memory.NewUserRepository(db)
	f.comments = memory.NewCommentRepository(db)
	projectRepo := memory.NewProjectRepository(db)
	f.notify = NewNotificationService(memory.NewNotificationRepository(db), em, log)
	f.activity = NewActivityService(memory.NewActivityRepository(db), log)
	f.projects = NewProjectService(projectRepo, f.users, f.notify, f.activity, nil, em, log)
	f.tasks = NewTaskService(memory.NewTaskRepository(db), f.comments, projectRepo, f.users, f.notify, f.activity, nil, nil, em, log)
	f.chat = NewChatService(memory.NewChatRepository(db), f.users, projectRepo, em, log)
	f.chat.Typing = f.typing
	f.files = NewFileService(nil, 1024, f.tasks)
	f.board = NewDashboardService(f.tasks, f.notify, f.activity)
	return f
}

func (f *fixture) user(t *testing.T, name string, role entity.Role) Actor {
	t.Helper()
	u := &entity.User{Name: name, Email: name + "@example.com", Password: "hash", Role: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	return Actor{ID: u.ID, Role: role}
}

// project creates a project owned by owner with the given extra members.
func (f *fixture) project(t *testing.T, owner Actor, members map[string]entity.MemberRole) *entity.Project {
	t.Helper()
	ctx := context.Background()
	name := "Launch"
	p, err := f.projects.Create(ctx, owner, ProjectInput{Name: &name})
	require.NoError(t, err)
	for id, role := range members {
		p, err = f.projects.AddMember(ctx, owner, p.ID, id, role)
		require.NoError(t, err)
	}
	return p
}

func strPtr(s string) *string { return &s }
