package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/config"
	"github.com/oksasatya/taskhub/internal/container"
	"github.com/oksasatya/taskhub/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/taskhub/internal/infrastructure/postgres"
	"github.com/oksasatya/taskhub/internal/interface/middleware"
	"github.com/oksasatya/taskhub/internal/realtime"
	"github.com/oksasatya/taskhub/internal/router"
	"github.com/oksasatya/taskhub/pkg/helpers"
	"github.com/oksasatya/taskhub/pkg/validation"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	if cfg.LogFile != "" {
		logFile := helpers.AttachLogFile(logger, cfg.LogFile)
		defer func() { _ = logFile.Close() }()
	}
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()
	container.SetConfig(cfg)
	container.SetLogger(logger)

	// Documents: MongoDB unless STORAGE_DRIVER=memory
	if cfg.UseMemoryStorage() {
		logger.Warn("STORAGE_DRIVER=memory: data is lost on restart")
	} else {
		client, err := mongodb.NewClient(ctx, cfg.MongoURI, cfg.MongoTimeout)
		if err != nil {
			logger.WithError(err).Fatal("connect mongodb")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		db := client.Database(cfg.MongoDB)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			logger.WithError(err).Fatal("ensure mongodb indexes")
		}
		container.SetMongo(db)
	}

	// Activity log in Postgres
	if cfg.ActivityLogEnabled {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: cfg.DBMaxConnLife,
			AppName:         cfg.AppName,
		})
		if err != nil {
			logger.WithError(err).Fatal("connect postgres")
		}
		defer pool.Close()
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			logger.WithError(err).Fatal("migrations failed")
		}
		container.SetPGPool(pool)
	}

	rdb := connectRedis(ctx, cfg, logger)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		container.SetRedis(rdb)
	}

	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Fatal("init gcs client")
		}
		defer func() { _ = gcsClient.Close() }()
		container.SetGCS(gcsClient)
	} else {
		logger.Info("GCS_BUCKET not set: uploads disabled")
	}

	if es := connectES(cfg, logger); es != nil {
		container.SetES(es)
	}

	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable: emails will not be queued")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL))

	// Realtime relay: Redis fans out across instances, otherwise local only
	var (
		bus      realtime.Bus
		presence realtime.Presence
	)
	if rdb != nil {
		bus = realtime.NewRedisBus(rdb, cfg.RealtimeChannel, logger)
		presence = realtime.NewRedisPresence(rdb)
	}
	hub := realtime.NewHub(realtime.OptionsFromConfig(cfg), bus, presence, logger)
	if err := hub.Start(); err != nil {
		logger.WithError(err).Fatal("start realtime hub")
	}
	container.SetHub(hub)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.Env == "development" || cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	// hijacked WebSocket connections are not covered by Shutdown
	if err := hub.Close(); err != nil {
		logger.WithError(err).Warn("close realtime hub")
	}
	logger.Info("server exited properly")
}

// connectRedis returns nil when Redis is not configured or not reachable.
func connectRedis(ctx context.Context, cfg *config.Config, logger *logrus.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set: sessions, rate limits and cross-instance relay disabled")
		return nil
	}
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(c).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable: sessions, rate limits and cross-instance relay disabled")
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// connectES returns nil when Elasticsearch is not configured or not reachable;
// search then falls back to repository filters.
func connectES(cfg *config.Config, logger *logrus.Logger) *elasticsearch.Client {
	addrs := cfg.ESAddrs()
	if len(addrs) == 0 {
		return nil
	}
	es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch client init failed")
		return nil
	}
	res, err := es.Ping()
	if err != nil {
		logger.WithError(err).Warn("elasticsearch unreachable: search falls back to filters")
		return nil
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		logger.WithField("status", res.Status()).Warn("elasticsearch ping failed: search falls back to filters")
		return nil
	}
	return es
}
