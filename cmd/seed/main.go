package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/taskhub/config"
	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
	"github.com/oksasatya/taskhub/internal/infrastructure/mongodb"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	client, err := mongodb.NewClient(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		logger.WithError(err).Fatal("connect mongodb")
	}
	defer func() { _ = client.Disconnect(ctx) }()
	db := client.Database(cfg.MongoDB)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		logger.WithError(err).Fatal("ensure indexes")
	}

	email := getenv("SEED_ADMIN_EMAIL", "admin@taskhub.local")
	password := getenv("SEED_ADMIN_PASSWORD", "password123")
	name := getenv("SEED_ADMIN_NAME", "Admin")

	hash, err := helpers.HashPassword(password)
	if err != nil {
		logger.WithError(err).Fatal("hash password")
	}

	users := mongodb.NewUserRepository(db)
	admin, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		admin = &entity.User{Email: email, Password: hash, Name: name, Role: entity.RoleAdmin, IsVerified: true}
		if err := users.Create(ctx, admin); err != nil {
			logger.WithError(err).Fatal("create admin")
		}
	case err != nil:
		logger.WithError(err).Fatal("lookup admin")
	default:
		admin.Name, admin.Password, admin.Role, admin.IsVerified = name, hash, entity.RoleAdmin, true
		if err := users.Update(ctx, admin); err != nil {
			logger.WithError(err).Fatal("update admin")
		}
	}
	fmt.Printf("seeded admin: id=%s email=%s password=%s\n", admin.ID, email, password)

	projects := mongodb.NewProjectRepository(db)
	owned, err := projects.ListForMember(ctx, admin.ID)
	if err != nil {
		logger.WithError(err).Fatal("list projects")
	}
	for _, p := range owned {
		if p.OwnerID == admin.ID {
			fmt.Printf("demo project exists: id=%s name=%s\n", p.ID, p.Name)
			return
		}
	}
	demo := &entity.Project{
		Name:        "Demo Project",
		Description: "Seeded project for local development",
		OwnerID:     admin.ID,
		Members:     []entity.Member{{UserID: admin.ID, Role: entity.MemberOwner, JoinedAt: time.Now().UTC()}},
		Status:      entity.ProjectActive,
	}
	if err := projects.Create(ctx, demo); err != nil {
		logger.WithError(err).Fatal("create demo project")
	}
	fmt.Printf("seeded project: id=%s name=%s\n", demo.ID, demo.Name)
}
