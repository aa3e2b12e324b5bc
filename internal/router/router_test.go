package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/taskhub/config"
	"github.com/oksasatya/taskhub/internal/container"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

func TestInitModulesWithMemoryStorage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.Load()
	cfg.StorageDriver = "memory"
	cfg.DebugMetricsEnabled = true
	container.SetConfig(cfg)
	container.SetLogger(log)
	container.SetJWT(helpers.NewJWTManager("a", "r", time.Minute, time.Hour))
	t.Cleanup(func() {
		if h := container.GetHub(); h != nil {
			_ = h.Close()
		}
	})

	engine := gin.New()
	reg := NewRegistry(engine)
	InitModules(reg)
	reg.RegisterAll()

	routes := map[string]bool{}
	for _, ri := range engine.Routes() {
		routes[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/register",
		"POST /api/login",
		"GET /api/users",
		"PATCH /api/users/:id/role",
		"GET /api/tasks/search",
		"POST /api/tasks/:id/timer/start",
		"POST /api/chat/rooms/direct",
		"PATCH /api/notifications/read-all",
		"POST /api/files",
		"GET /api/dashboard",
		"GET /api/ws",
		"GET /api/presence",
		"GET /api/debug/vars",
		"GET /api/health",
	} {
		assert.True(t, routes[want], want)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, _, err := container.GetJWT().GenerateAccessToken("u1", "user", "s1")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
