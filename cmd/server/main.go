package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/softdesk/backend/internal/config"
	"github.com/softdesk/backend/internal/database"
	"github.com/softdesk/backend/internal/handlers"
	"github.com/softdesk/backend/internal/middleware"
	"github.com/softdesk/backend/internal/services"
	"github.com/softdesk/backend/pkg/logger"
	"github.com/softdesk/backend/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	membershipService := services.NewMembershipService(db)
	authzService := services.NewAuthzService(db, membershipService)

	authHandler := handlers.NewAuthHandler(db, cfg.Signup.MinAge)
	usersHandler := handlers.NewUsersHandler(db)
	projectsHandler := handlers.NewProjectsHandler(db, authzService)
	contributorsHandler := handlers.NewContributorsHandler(db, authzService)
	issuesHandler := handlers.NewIssuesHandler(db, authzService)
	commentsHandler := handlers.NewCommentsHandler(db, authzService)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 4 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/me", authMiddleware.RequireAuth, authHandler.UpdateMe)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth)
	userRoutes.Get("/", middleware.AdminOnly, usersHandler.List)
	userRoutes.Get("/:id", usersHandler.Get)
	userRoutes.Put("/:id", usersHandler.Update)
	userRoutes.Delete("/:id", usersHandler.Delete)

	projectRoutes := api.Group("/projects", authMiddleware.RequireAuth)
	projectRoutes.Get("/", projectsHandler.List)
	projectRoutes.Post("/", projectsHandler.Create)
	projectRoutes.Get("/:projectId", projectsHandler.Get)
	projectRoutes.Put("/:projectId", projectsHandler.Update)
	projectRoutes.Delete("/:projectId", projectsHandler.Delete)

	projectRoutes.Get("/:projectId/contributors/", contributorsHandler.List)
	projectRoutes.Post("/:projectId/contributors/", contributorsHandler.Create)
	projectRoutes.Get("/:projectId/contributors/:userId", contributorsHandler.Get)
	projectRoutes.Delete("/:projectId/contributors/:userId", contributorsHandler.Delete)

	projectRoutes.Get("/:projectId/issues/", issuesHandler.List)
	projectRoutes.Post("/:projectId/issues/", issuesHandler.Create)
	projectRoutes.Get("/:projectId/issues/:issueId", issuesHandler.Get)
	projectRoutes.Put("/:projectId/issues/:issueId", issuesHandler.Update)
	projectRoutes.Delete("/:projectId/issues/:issueId", issuesHandler.Delete)

	projectRoutes.Get("/:projectId/issues/:issueId/comments/", commentsHandler.List)
	projectRoutes.Post("/:projectId/issues/:issueId/comments/", commentsHandler.Create)
	projectRoutes.Get("/:projectId/issues/:issueId/comments/:commentId", commentsHandler.Get)
	projectRoutes.Put("/:projectId/issues/:issueId/comments/:commentId", commentsHandler.Update)
	projectRoutes.Delete("/:projectId/issues/:issueId/comments/:commentId", commentsHandler.Delete)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
