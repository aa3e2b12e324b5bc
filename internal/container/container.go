package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/taskhub/config"
	"github.com/oksasatya/taskhub/internal/infrastructure/memory"
	"github.com/oksasatya/taskhub/internal/realtime"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

// Process-wide singletons set by cmd/main and read by the router when it
// wires modules. Optional backends stay nil when not configured.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	mongoDB     *mongo.Database
	memDB       *memory.DB
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client
	hub       *realtime.Hub
)

func SetConfig(c *config.Config)  { cfg = c }
func GetConfig() *config.Config   { return cfg }
func SetLogger(l *logrus.Logger)  { logger = l }
func GetLogger() *logrus.Logger   { return logger }
func SetMongo(db *mongo.Database) { mongoDB = db }
func GetMongo() *mongo.Database   { return mongoDB }
func SetPGPool(p *pgxpool.Pool)   { pgPool = p }
func GetPGPool() *pgxpool.Pool    { return pgPool }
func SetRedis(r *redis.Client)    { redisClient = r }
func GetRedis() *redis.Client     { return redisClient }
func SetGCS(s *storage.Client)    { gcsClient = s }
func GetGCS() *storage.Client     { return gcsClient }

// GetMemory returns the shared in-memory store, opening it on first use.
func GetMemory() *memory.DB {
	if memDB == nil {
		memDB = memory.Open()
	}
	return memDB
}

func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	return helpers.DefaultJWT()
}

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }
func SetHub(h *realtime.Hub)                  { hub = h }
func GetHub() *realtime.Hub                   { return hub }
