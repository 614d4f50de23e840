package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/softdesk/backend/internal/models"
)

func TestUserViewEmailVisibility(t *testing.T) {
	tests := []struct {
		name           string
		canBeContacted bool
		wantEmailField bool
	}{
		{
			name:           "email present when user consented to contact",
			canBeContacted: true,
			wantEmailField: true,
		},
		{
			name:           "email absent when user opted out",
			canBeContacted: false,
			wantEmailField: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := models.User{
				Username:       "privacy-user",
				Email:          "privacy@test.com",
				CanBeContacted: tt.canBeContacted,
			}
			user.ID = uuid.New()

			contributor := models.Contributor{
				UserID:     user.ID,
				ProjectID:  uuid.New(),
				Permission: models.PermissionContributor,
				Role:       models.RoleContributor,
				User:       user,
			}

			raw, err := json.Marshal(newContributorView(&contributor))
			if err != nil {
				t.Fatalf("failed marshaling contributor view: %v", err)
			}

			hasEmail := strings.Contains(string(raw), `"email"`)
			if hasEmail != tt.wantEmailField {
				t.Fatalf("email field presence = %v, want %v (json: %s)", hasEmail, tt.wantEmailField, raw)
			}
		})
	}
}

func TestProjectDetailViewCarriesContributors(t *testing.T) {
	author := models.User{Username: "detail-author", Email: "author@test.com", CanBeContacted: true}
	author.ID = uuid.New()

	project := models.Project{
		Title:       "Detail",
		Description: "detail view",
		Type:        models.ProjectTypeIOS,
		AuthorID:    &author.ID,
		Contributors: []models.Contributor{
			{
				UserID:     author.ID,
				Permission: models.PermissionResponsible,
				Role:       models.RoleAuthor,
				User:       author,
			},
		},
	}
	project.ID = uuid.New()

	view := newProjectDetailView(&project)
	if len(view.Contributors) != 1 {
		t.Fatalf("expected one contributor, got %d", len(view.Contributors))
	}
	if view.Contributors[0].Permission != models.PermissionResponsible {
		t.Fatalf("expected responsible permission, got %s", view.Contributors[0].Permission)
	}
	if view.Contributors[0].User.Email != "author@test.com" {
		t.Fatal("expected email for a contactable user")
	}
}
