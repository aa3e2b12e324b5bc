package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/taskhub/config"
	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/infrastructure/memory"
	"github.com/oksasatya/taskhub/pkg/helpers"
	"github.com/oksasatya/taskhub/pkg/validation"
)

var initValidation sync.Once

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   json.RawMessage `json:"error"`
}

type server struct {
	engine *gin.Engine
	users  *memory.UserRepository
	svc    *application.UserService
}

func newServer(t *testing.T) *server {
	t.Helper()
	initValidation.Do(func() {
		validation.Init()
		helpers.PasswordCost = bcrypt.MinCost
	})
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{Env: "test", CookieDomain: "localhost", RefreshTTL: time.Hour, UploadMaxBytes: 1024}
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)

	db := memory.Open()
	users := memory.NewUserRepository(db)
	projectRepo := memory.NewProjectRepository(db)
	notify := application.NewNotificationService(memory.NewNotificationRepository(db), nil, log)
	activity := application.NewActivityService(memory.NewActivityRepository(db), log)
	userSvc := application.NewUserService(users, jwt, nil, nil, nil, nil, cfg, log)
	projects := application.NewProjectService(projectRepo, users, notify, activity, nil, nil, log)
	tasks := application.NewTaskService(memory.NewTaskRepository(db), memory.NewCommentRepository(db), projectRepo, users, notify, activity, nil, nil, nil, log)
	chat := application.NewChatService(memory.NewChatRepository(db), users, projectRepo, nil, log)
	files := application.NewFileService(nil, cfg.UploadMaxBytes, tasks)

	auth := NewAuthHandler(userSvc, cfg, log)
	uh := NewUserHandler(userSvc, cfg.UploadMaxBytes, log)
	th := NewTaskHandler(tasks, log)
	ph := NewProjectHandler(projects, log)
	ch := NewChatHandler(chat, log)
	nh := NewNotificationHandler(notify, log)
	fh := NewFileHandler(files, cfg.UploadMaxBytes, log)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/register", auth.Register)
	api.POST("/login", auth.Login)
	api.POST("/refresh", auth.Refresh)

	// callers are identified by test headers instead of tokens
	in := api.Group("/", func(c *gin.Context) {
		c.Set("userID", c.GetHeader("X-Test-User"))
		c.Set("userRole", c.GetHeader("X-Test-Role"))
	})
	in.GET("/profile", uh.GetProfile)
	in.PATCH("/users/:id/role", uh.SetRole)
	in.GET("/users/search", uh.Search)
	in.POST("/projects", ph.Create)
	in.POST("/projects/:id/members", ph.AddMember)
	in.PATCH("/projects/:id/members/:userId", ph.UpdateMember)
	in.POST("/tasks", th.Create)
	in.GET("/tasks", th.List)
	in.GET("/tasks/:id", th.Get)
	in.PATCH("/tasks/:id/status", th.UpdateStatus)
	in.POST("/tasks/:id/timer/start", th.StartTimer)
	in.POST("/tasks/:id/time", th.LogTime)
	in.POST("/tasks/:id/comments", th.AddComment)
	in.POST("/tasks/:id/attachments", fh.AttachToTask)
	in.POST("/files", fh.Upload)
	in.POST("/chat/rooms/direct", ch.Direct)
	in.GET("/chat/rooms/:id", ch.GetRoom)
	in.POST("/chat/rooms/:id/messages", ch.Send)
	in.GET("/chat/rooms/:id/messages", ch.Messages)
	in.GET("/notifications/unread-count", nh.UnreadCount)
	in.PATCH("/notifications/read-all", nh.MarkAllRead)

	return &server{engine: r, users: users, svc: userSvc}
}

func (s *server) user(t *testing.T, name string, role entity.Role) application.Actor {
	t.Helper()
	u := &entity.User{Name: name, Email: name + "@example.com", Password: "x", Role: role}
	require.NoError(t, s.users.Create(context.Background(), u))
	return application.Actor{ID: u.ID, Role: role}
}

func (s *server) do(t *testing.T, as application.Actor, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", as.ID)
	req.Header.Set("X-Test-Role", string(as.Role))
	return s.serve(t, req)
}

func (s *server) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)
	anon := application.Actor{}

	w, env := s.do(t, anon, http.MethodPost, "/api/auth/register", gin.H{"name": "Ada", "email": "Ada@Example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, w.Code)
	u := decode[entity.User](t, env.Data)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, entity.RoleUser, u.Role)
	assert.NotContains(t, string(env.Data), "correct-horse")

	w, _ = s.do(t, anon, http.MethodPost, "/api/auth/register", gin.H{"name": "Ada", "email": "ada@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = s.do(t, anon, http.MethodPost, "/api/auth/register", gin.H{"name": "B", "email": "nope", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	details := decode[map[string]string](t, env.Error)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")

	w, _ = s.do(t, anon, http.MethodPost, "/api/login", gin.H{"email": "ada@example.com", "password": "wrong-horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = s.do(t, anon, http.MethodPost, "/api/login", gin.H{"email": "ada@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Meta), "access_expires_at")
	var refresh *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == helpers.RefreshCookie {
			refresh = ck
		}
	}
	require.NotNil(t, refresh)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	req.AddCookie(refresh)
	w, _ = s.serve(t, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.serve(t, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetRoleRequiresAdmin(t *testing.T) {
	s := newServer(t)
	admin := s.user(t, "root", entity.RoleAdmin)
	bob := s.user(t, "bob", entity.RoleUser)

	w, _ := s.do(t, bob, http.MethodPatch, "/api/users/"+admin.ID+"/role", gin.H{"role": "user"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, admin, http.MethodPatch, "/api/users/"+bob.ID+"/role", gin.H{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, admin, http.MethodPatch, "/api/users/"+bob.ID+"/role", gin.H{"role": "manager"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.RoleManager, decode[entity.User](t, env.Data).Role)

	w, _ = s.do(t, admin, http.MethodPatch, "/api/users/missing/role", gin.H{"role": "manager"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserSearchWithoutIndex(t *testing.T) {
	s := newServer(t)
	alice := s.user(t, "alice", entity.RoleUser)
	s.user(t, "bob", entity.RoleUser)

	w, env := s.do(t, alice, http.MethodGet, "/api/users/search?q=bo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]entity.Public](t, env.Data)
	require.Len(t, found, 1)
	assert.Equal(t, "bob", found[0].Name)
}

func TestTaskLifecycle(t *testing.T) {
	s := newServer(t)
	alice := s.user(t, "alice", entity.RoleUser)
	bob := s.user(t, "bob", entity.RoleUser)
	eve := s.user(t, "eve", entity.RoleUser)

	w, env := s.do(t, alice, http.MethodPost, "/api/projects", gin.H{"name": "Launch"})
	require.Equal(t, http.StatusCreated, w.Code)
	project := decode[entity.Project](t, env.Data)

	w, _ = s.do(t, alice, http.MethodPost, "/api/projects/"+project.ID+"/members", gin.H{"user_id": bob.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.do(t, alice, http.MethodPost, "/api/projects/"+project.ID+"/members", gin.H{"user_id": bob.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	w, _ = s.do(t, alice, http.MethodPatch, "/api/projects/"+project.ID+"/members/"+alice.ID, gin.H{"role": "viewer"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "owner cannot be demoted")

	w, _ = s.do(t, alice, http.MethodPost, "/api/tasks", gin.H{"title": "x", "priority": "whenever"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, alice, http.MethodPost, "/api/tasks", gin.H{"priority": "high"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, alice, http.MethodPost, "/api/tasks", gin.H{
		"title": "Ship it", "project_id": project.ID, "assignee_id": bob.ID, "tags": []string{"Release"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode[entity.Task](t, env.Data)
	assert.Equal(t, entity.TaskTodo, task.Status)
	assert.Equal(t, entity.PriorityMedium, task.Priority)

	w, env = s.do(t, bob, http.MethodGet, "/api/tasks?project_id="+project.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entity.Task](t, env.Data), 1)
	assert.JSONEq(t, `{"page":1,"limit":20,"total":1,"pages":1}`, string(env.Meta))

	w, _ = s.do(t, bob, http.MethodGet, "/api/tasks?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, eve, http.MethodGet, "/api/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, bob, http.MethodGet, "/api/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":2}`, string(env.Data), "project invite and task assignment")
	w, _ = s.do(t, bob, http.MethodPatch, "/api/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = s.do(t, bob, http.MethodGet, "/api/notifications/unread-count", nil)
	assert.JSONEq(t, `{"count":0}`, string(env.Data))

	w, env = s.do(t, bob, http.MethodPatch, "/api/tasks/"+task.ID+"/status", gin.H{"status": "done"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode[entity.Task](t, env.Data).CompletedAt)

	w, _ = s.do(t, bob, http.MethodPost, "/api/tasks/"+task.ID+"/timer/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, bob, http.MethodPost, "/api/tasks/"+task.ID+"/timer/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = s.do(t, bob, http.MethodPost, "/api/tasks/"+task.ID+"/time", gin.H{"minutes": 10081})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(env.Error), "minutes")
	w, env = s.do(t, bob, http.MethodPost, "/api/tasks/"+task.ID+"/time", gin.H{"minutes": 90})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 90, decode[entity.Task](t, env.Data).TimeTracking.LoggedMinutes)

	w, _ = s.do(t, bob, http.MethodPost, "/api/tasks/"+task.ID+"/comments", gin.H{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, bob, http.MethodPost, "/api/tasks/"+task.ID+"/comments", gin.H{"content": "looks good"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestUploadsWithoutStorage(t *testing.T) {
	s := newServer(t)
	alice := s.user(t, "alice", entity.RoleUser)

	upload := func(path string, size int) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "notes.txt")
		require.NoError(t, err)
		_, err = fw.Write(bytes.Repeat([]byte("a"), size))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("X-Test-User", alice.ID)
		w, _ := s.serve(t, req)
		return w
	}

	assert.Equal(t, http.StatusServiceUnavailable, upload("/api/files", 10).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, upload("/api/files", 2048).Code)
	assert.Equal(t, http.StatusNotFound, upload("/api/tasks/missing/attachments", 10).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/files", nil)
	req.Header.Set("X-Test-User", alice.ID)
	w, _ := s.serve(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirectChat(t *testing.T) {
	s := newServer(t)
	alice := s.user(t, "alice", entity.RoleUser)
	bob := s.user(t, "bob", entity.RoleUser)
	eve := s.user(t, "eve", entity.RoleUser)

	w, env := s.do(t, alice, http.MethodPost, "/api/chat/rooms/direct", gin.H{"user_id": bob.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	room := decode[entity.ChatRoom](t, env.Data)

	w, env = s.do(t, bob, http.MethodPost, "/api/chat/rooms/direct", gin.H{"user_id": alice.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, room.ID, decode[entity.ChatRoom](t, env.Data).ID)

	w, _ = s.do(t, alice, http.MethodPost, "/api/chat/rooms/direct", gin.H{"user_id": alice.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, eve, http.MethodGet, "/api/chat/rooms/"+room.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(t, eve, http.MethodPost, "/api/chat/rooms/"+room.ID+"/messages", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	for _, text := range []string{"one", "two"} {
		w, _ = s.do(t, alice, http.MethodPost, "/api/chat/rooms/"+room.ID+"/messages", gin.H{"content": text})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, env = s.do(t, bob, http.MethodGet, "/api/chat/rooms/"+room.ID+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs := decode[[]entity.Message](t, env.Data)
	require.Len(t, msgs, 2)

	w, env = s.do(t, bob, http.MethodGet, "/api/chat/rooms/"+room.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"unread_count":2`)
}
