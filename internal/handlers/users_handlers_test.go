package handlers

import (
	"net/http"
	"testing"

	"github.com/softdesk/backend/internal/models"
)

func TestUsersEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	alice, aliceToken := createTestUser(t, env.db, "users-alice", models.UserRoleUser)
	bob, bobToken := createTestUser(t, env.db, "users-bob", models.UserRoleUser)
	_, adminToken := createTestUser(t, env.db, "users-admin", models.UserRoleAdmin)

	t.Run("GET /api/users/ admin only", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/", nil, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "admin access required")

		resp = performRequest(t, env.app, http.MethodGet, "/api/users/", nil, authHeaders(adminToken))
		body = decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if data := body["data"].([]any); len(data) != 3 {
			t.Fatalf("expected three users, got %d", len(data))
		}
	})

	t.Run("GET /api/users/:id self allowed, other denied", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/"+alice.ID.String(), nil, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusOK)

		resp = performRequest(t, env.app, http.MethodGet, "/api/users/"+bob.ID.String(), nil, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "can only access your own account")
	})

	t.Run("GET /api/users/:id admin can read anyone", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/"+bob.ID.String(), nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)
	})

	t.Run("PUT /api/users/:id role change requires admin", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/users/"+alice.ID.String(), map[string]any{
			"role": "admin",
		}, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "only admins can change roles")
	})

	t.Run("PUT /api/users/:id self update", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/users/"+alice.ID.String(), map[string]any{
			"email": "alice-new@test.com",
		}, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		data := body["data"].(map[string]any)
		if data["email"].(string) != "alice-new@test.com" {
			t.Fatalf("expected updated email, got %v", data["email"])
		}
	})

	t.Run("DELETE /api/users/:id nullifies authorship and drops memberships", func(t *testing.T) {
		projectID := createTestProject(t, env, bobToken, "Bob Project")

		issueResp := performJSONRequest(t, env.app, http.MethodPost,
			"/api/projects/"+projectID.String()+"/issues/",
			map[string]any{"title": "Bob issue"},
			authHeaders(bobToken))
		assertStatus(t, issueResp, http.StatusCreated)

		resp := performRequest(t, env.app, http.MethodDelete, "/api/users/"+bob.ID.String(), nil, authHeaders(bobToken))
		assertStatus(t, resp, http.StatusOK)

		var project models.Project
		if err := env.db.First(&project, "id = ?", projectID).Error; err != nil {
			t.Fatalf("project must survive its author's deletion: %v", err)
		}
		if project.AuthorID != nil {
			t.Fatal("expected project authorID to be nullified")
		}

		var memberships int64
		env.db.Model(&models.Contributor{}).Where("user_id = ?", bob.ID).Count(&memberships)
		if memberships != 0 {
			t.Fatalf("expected contributor rows to be gone, got %d", memberships)
		}

		var issue models.Issue
		if err := env.db.First(&issue, "project_id = ?", projectID).Error; err != nil {
			t.Fatalf("issue must survive its author's deletion: %v", err)
		}
		if issue.AuthorID != nil {
			t.Fatal("expected issue authorID to be nullified")
		}
	})

	t.Run("DELETE /api/users/:id self allowed, gone afterwards", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/users/"+alice.ID.String(), nil, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusOK)

		resp = performRequest(t, env.app, http.MethodDelete, "/api/users/"+alice.ID.String(), nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusNotFound)
		assertEnvelopeError(t, body, "user not found")
	})
}

func TestUserEmailConsentOnAccounts(t *testing.T) {
	env := setupTestEnv(t)
	private, privateToken := createTestUser(t, env.db, "users-private", models.UserRoleUser)
	_, adminToken := createTestUser(t, env.db, "users-consent-admin", models.UserRoleAdmin)

	if err := env.db.Model(&models.User{}).
		Where("id = ?", private.ID).
		Update("can_be_contacted", false).Error; err != nil {
		t.Fatalf("failed revoking contact consent: %v", err)
	}

	t.Run("admin list omits opted-out emails", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/?search=users-private", nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		data := body["data"].([]any)
		if len(data) != 1 {
			t.Fatalf("expected one user, got %d", len(data))
		}
		entry := data[0].(map[string]any)
		if _, exists := entry["email"]; exists {
			t.Fatalf("expected email to be omitted for opted-out user, got %v", entry["email"])
		}
	})

	t.Run("admin get omits opted-out email", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/"+private.ID.String(), nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		data := body["data"].(map[string]any)
		if _, exists := data["email"]; exists {
			t.Fatalf("expected email to be omitted for opted-out user, got %v", data["email"])
		}
	})

	t.Run("users always see their own email", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/"+private.ID.String(), nil, authHeaders(privateToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		data := body["data"].(map[string]any)
		if data["email"] != private.Email {
			t.Fatalf("expected own email in self view, got %v", data["email"])
		}
	})
}
