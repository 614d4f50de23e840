package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/softdesk/backend/internal/models"
)

func TestContributorsEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	author, authorToken := createTestUser(t, env.db, "contrib-author", models.UserRoleUser)
	member, memberToken := createTestUser(t, env.db, "contrib-member", models.UserRoleUser)
	_, outsiderToken := createTestUser(t, env.db, "contrib-outsider", models.UserRoleUser)
	_, adminToken := createTestUser(t, env.db, "contrib-admin", models.UserRoleAdmin)

	projectID := createTestProject(t, env, authorToken, "Contrib Project")
	base := "/api/projects/" + projectID.String() + "/contributors/"

	t.Run("POST add contributor by author", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, base, map[string]any{
			"username": "contrib-member",
		}, authHeaders(authorToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusCreated)

		data := body["data"].(map[string]any)
		if data["permission"].(string) != "contributor" {
			t.Fatalf("expected plain contributor permission, got %v", data["permission"])
		}
	})

	t.Run("POST duplicate pair conflicts", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, base, map[string]any{
			"username": "contrib-member",
		}, authHeaders(authorToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusConflict)
		assertEnvelopeError(t, body, "user is already a contributor of the project")
	})

	t.Run("POST unknown username rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, base, map[string]any{
			"username": "ghost-user",
		}, authHeaders(authorToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "user does not exist")
	})

	t.Run("POST by plain contributor denied", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, base, map[string]any{
			"username": "contrib-outsider",
		}, authHeaders(memberToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "must be the project author to add contributors")
	})

	t.Run("GET list requires membership", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, base, nil, authHeaders(outsiderToken))
		assertStatus(t, resp, http.StatusForbidden)

		resp = performRequest(t, env.app, http.MethodGet, base, nil, authHeaders(memberToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if data := body["data"].([]any); len(data) != 2 {
			t.Fatalf("expected author and member, got %d contributors", len(data))
		}
		pagination := body["pagination"].(map[string]any)
		if total := pagination["total"].(float64); total != 2 {
			t.Fatalf("expected total=2, got %v", total)
		}

		resp = performRequest(t, env.app, http.MethodGet, base+"?limit=1", nil, authHeaders(memberToken))
		body = decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if data := body["data"].([]any); len(data) != 1 {
			t.Fatalf("expected one contributor on the page, got %d", len(data))
		}
	})

	t.Run("GET single contributor by user id", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, base+member.ID.String(), nil, authHeaders(memberToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		data := body["data"].(map[string]any)
		user := data["user"].(map[string]any)
		if user["username"].(string) != "contrib-member" {
			t.Fatalf("unexpected contributor user: %v", user["username"])
		}
	})

	t.Run("GET contributor missing from project is not found", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, base+outsiderUserID(t, env), nil, authHeaders(memberToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusNotFound)
		assertEnvelopeError(t, body, "contributor not found")
	})

	t.Run("DELETE author self-removal denied", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, base+author.ID.String(), nil, authHeaders(authorToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "the project author cannot be removed from contributors")
	})

	t.Run("DELETE author removal denied even for admin", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, base+author.ID.String(), nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "the project author cannot be removed from contributors")
	})

	t.Run("DELETE by plain contributor denied", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, base+member.ID.String(), nil, authHeaders(memberToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "must be the project author to remove a contributor")
	})

	t.Run("DELETE by author removes contributor", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, base+member.ID.String(), nil, authHeaders(authorToken))
		assertStatus(t, resp, http.StatusOK)

		var count int64
		env.db.Model(&models.Contributor{}).
			Where("project_id = ? AND user_id = ?", projectID, member.ID).
			Count(&count)
		if count != 0 {
			t.Fatal("expected contributor row to be gone")
		}
	})

	t.Run("POST on unknown project is not found", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost,
			"/api/projects/00000000-0000-0000-0000-000000000001/contributors/",
			map[string]any{"username": "contrib-member"},
			authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusNotFound)
		assertEnvelopeError(t, body, "project not found")
	})
}

func outsiderUserID(t *testing.T, env *testEnv) string {
	t.Helper()
	var user models.User
	if err := env.db.First(&user, "username = ?", "contrib-outsider").Error; err != nil {
		t.Fatalf("failed loading outsider user: %v", err)
	}
	return fmt.Sprint(user.ID)
}
