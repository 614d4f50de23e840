package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/softdesk/backend/internal/middleware"
	"github.com/softdesk/backend/internal/models"
	"github.com/softdesk/backend/internal/services"
	"github.com/softdesk/backend/pkg/logger"
	"github.com/softdesk/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Contributor{},
		&models.Issue{},
		&models.Comment{},
	)
	if err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	membershipService := services.NewMembershipService(db)
	authzService := services.NewAuthzService(db, membershipService)

	authHandler := NewAuthHandler(db, 15)
	usersHandler := NewUsersHandler(db)
	projectsHandler := NewProjectsHandler(db, authzService)
	contributorsHandler := NewContributorsHandler(db, authzService)
	issuesHandler := NewIssuesHandler(db, authzService)
	commentsHandler := NewCommentsHandler(db, authzService)
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

	return &testEnv{app: app, db: db}
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Username:       username,
		Email:          username + "@test.com",
		PasswordHash:   hash,
		Age:            25,
		Role:           role,
		CanBeContacted: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestProject(t *testing.T, env *testEnv, token, title string) uuid.UUID {
	t.Helper()

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/projects/", map[string]any{
		"title":       title,
		"description": "test project",
		"type":        "back-end",
	}, authHeaders(token))
	body := decodeJSONMap(t, resp)
	assertStatus(t, resp, http.StatusCreated)

	data := body["data"].(map[string]any)
	projectID, err := uuid.Parse(data["id"].(string))
	if err != nil {
		t.Fatalf("failed parsing created project id: %v", err)
	}
	return projectID
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
