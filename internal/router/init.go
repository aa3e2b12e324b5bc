package router

import (
	"github.com/oksasatya/taskhub/config"
	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/internal/container"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
	"github.com/oksasatya/taskhub/internal/infrastructure/memory"
	"github.com/oksasatya/taskhub/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/taskhub/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/taskhub/internal/interface/http"
	"github.com/oksasatya/taskhub/internal/realtime"
	"github.com/oksasatya/taskhub/internal/router/modules"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

// Repos is the storage backing every service.
type Repos struct {
	Users         repo.UserRepository
	Tasks         repo.TaskRepository
	Comments      repo.CommentRepository
	Projects      repo.ProjectRepository
	Chat          repo.ChatRepository
	Notifications repo.NotificationRepository
	Activity      repo.ActivityRepository
}

// buildRepos picks MongoDB or the in-memory store for documents. The activity
// log lives in Postgres when a pool is set and in memory otherwise.
func buildRepos(cfg *config.Config) Repos {
	var r Repos
	if db := container.GetMongo(); db != nil && !cfg.UseMemoryStorage() {
		r = Repos{
			Users:         mongodb.NewUserRepository(db),
			Tasks:         mongodb.NewTaskRepository(db),
			Comments:      mongodb.NewCommentRepository(db),
			Projects:      mongodb.NewProjectRepository(db),
			Chat:          mongodb.NewChatRepository(db),
			Notifications: mongodb.NewNotificationRepository(db),
		}
	} else {
		mem := container.GetMemory()
		r = Repos{
			Users:         memory.NewUserRepository(mem),
			Tasks:         memory.NewTaskRepository(mem),
			Comments:      memory.NewCommentRepository(mem),
			Projects:      memory.NewProjectRepository(mem),
			Chat:          memory.NewChatRepository(mem),
			Notifications: memory.NewNotificationRepository(mem),
		}
	}
	if pool := container.GetPGPool(); pool != nil {
		r.Activity = pginfra.NewActivityRepository(pool)
	} else {
		r.Activity = memory.NewActivityRepository(container.GetMemory())
	}
	return r
}

// Services groups the application layer built over Repos.
type Services struct {
	Users         *application.UserService
	Tasks         *application.TaskService
	Projects      *application.ProjectService
	Chat          *application.ChatService
	Notifications *application.NotificationService
	Activity      *application.ActivityService
	Files         *application.FileService
	Dashboard     *application.DashboardService
}

// optional backends are converted to interfaces only when set, so services
// see a nil interface rather than a typed nil pointer
func emailQueue() application.EmailQueue {
	if p := container.GetRabbitPub(); p != nil {
		return p
	}
	return nil
}

func objectStore(cfg *config.Config) application.ObjectStore {
	if c := container.GetGCS(); c != nil && cfg.GCSBucket != "" {
		return helpers.NewGCSStore(c, cfg.GCSBucket)
	}
	return nil
}

func searchIndex(name string) application.SearchIndex {
	if c := container.GetES(); c != nil && name != "" {
		return helpers.NewESIndex(c, name, container.GetLogger())
	}
	return nil
}

func buildServices(cfg *config.Config, r Repos, hub *realtime.Hub) Services {
	logger := container.GetLogger()
	mail := application.NewMailOutbox(emailQueue(), cfg, logger)
	store := objectStore(cfg)

	notify := application.NewNotificationService(r.Notifications, hub, logger)
	activity := application.NewActivityService(r.Activity, logger)
	users := application.NewUserService(r.Users, container.GetJWT(), container.GetRedis(), store, searchIndex(cfg.ESUsersIndex), mail, cfg, logger)
	projects := application.NewProjectService(r.Projects, r.Users, notify, activity, mail, hub, logger)
	tasks := application.NewTaskService(r.Tasks, r.Comments, r.Projects, r.Users, notify, activity, mail, searchIndex(cfg.ESTasksIndex), hub, logger)
	chat := application.NewChatService(r.Chat, r.Users, r.Projects, hub, logger)
	chat.Typing = hub.Typing()
	hub.Bind(chat, projects)

	return Services{
		Users:         users,
		Tasks:         tasks,
		Projects:      projects,
		Chat:          chat,
		Notifications: notify,
		Activity:      activity,
		Files:         application.NewFileService(store, cfg.UploadMaxBytes, tasks),
		Dashboard:     application.NewDashboardService(tasks, notify, activity),
	}
}

// InitModules builds repositories, services and handlers from the container
// and adds every feature module to the registry. Call once at startup after
// the container is populated.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()

	hub := container.GetHub()
	if hub == nil {
		hub = realtime.NewHub(realtime.OptionsFromConfig(cfg), nil, nil, logger)
		if err := hub.Start(); err != nil {
			logger.WithError(err).Fatal("start realtime hub")
		}
		container.SetHub(hub)
	}

	svc := buildServices(cfg, buildRepos(cfg), hub)
	files := handlers.NewFileHandler(svc.Files, cfg.UploadMaxBytes, logger)

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc.Users, cfg, logger), jwt))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(svc.Users, cfg.UploadMaxBytes, logger), jwt))
	r.Add(modules.NewProjectModule(handlers.NewProjectHandler(svc.Projects, logger), jwt))
	r.Add(modules.NewTaskModule(handlers.NewTaskHandler(svc.Tasks, logger), files, jwt))
	r.Add(modules.NewChatModule(handlers.NewChatHandler(svc.Chat, logger), jwt))
	r.Add(modules.NewNotificationModule(handlers.NewNotificationHandler(svc.Notifications, logger), jwt))
	r.Add(modules.NewFileModule(files, jwt))
	r.Add(modules.NewDashboardModule(handlers.NewDashboardHandler(svc.Dashboard, logger), jwt))
	r.Add(modules.NewRealtimeModule(realtime.NewHandler(hub, cfg.CORSOrigins()), jwt))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(hub))
	}
}
