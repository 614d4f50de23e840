package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/softdesk/backend/internal/middleware"
	"github.com/softdesk/backend/internal/models"
	"github.com/softdesk/backend/internal/services"
	"github.com/softdesk/backend/pkg/logger"
	"github.com/softdesk/backend/pkg/utils"
	"gorm.io/gorm"
)

type ProjectsHandler struct {
	DB    *gorm.DB
	Authz *services.AuthzService
}

func NewProjectsHandler(db *gorm.DB, authz *services.AuthzService) *ProjectsHandler {
	return &ProjectsHandler{DB: db, Authz: authz}
}

func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Project{})
	if !currentUser.IsAdmin() {
		query = query.
			Joins("JOIN contributors ON contributors.project_id = projects.id").
			Where("contributors.user_id = ?", currentUser.ID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting projects")
	}

	var projects []models.Project
	if err := utils.ApplyPagination(query.Order("projects.created_at DESC"), p).Find(&projects).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing projects")
	}

	items := make([]projectListItem, 0, len(projects))
	for i := range projects {
		items = append(items, newProjectListItem(&projects[i]))
	}

	return utils.Paginated(c, items, p.Page, p.Limit, total)
}

type createProjectRequest struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Type         models.ProjectType `json:"type"`
	Contributors []string           `json:"contributors"`
}

// Create persists the project and its author-contributor in one
// transaction; a project is never observable without its author holding
// the responsible permission. Invited usernames that cannot be resolved do
// not roll the project back; they come back as warnings on the 201.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return utils.Error(c, fiber.StatusBadRequest, "title is required")
	}
	if !models.IsValidProjectType(req.Type) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project type")
	}

	authorID := currentUser.ID
	project := models.Project{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Type:        req.Type,
		AuthorID:    &authorID,
	}

	var warnings []string
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		author := models.Contributor{
			UserID:     currentUser.ID,
			ProjectID:  project.ID,
			Permission: models.PermissionResponsible,
			Role:       models.RoleAuthor,
		}
		if err := tx.Create(&author).Error; err != nil {
			return err
		}

		warnings = inviteContributors(tx, &project, currentUser.Username, req.Contributors)
		return nil
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating project")
	}

	logger.InfoWithUser(currentUser.ID.String(), "project_created", map[string]interface{}{
		"project_id":    project.ID.String(),
		"project_title": project.Title,
	})

	detail, err := h.loadProjectDetail(project.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading created project")
	}

	return utils.SuccessWithWarnings(c, fiber.StatusCreated, newProjectDetailView(detail), warnings)
}

func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	if err := h.Authz.CanReadProject(c.Context(), currentUser, projectID); err != nil {
		return serviceError(c, err, "failed validating project access")
	}

	project, err := h.loadProjectDetail(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	return utils.Success(c, fiber.StatusOK, newProjectDetailView(project))
}

type updateProjectRequest struct {
	Title        *string             `json:"title"`
	Description  *string             `json:"description"`
	Type         *models.ProjectType `json:"type"`
	Contributors *[]string           `json:"contributors"`
}

// Update edits project fields and, when a contributors list is submitted,
// diffs it against current membership: newly listed usernames are added,
// absent ones removed. The author is excluded from the diff on both sides.
func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	if err := h.Authz.CanWriteProject(c.Context(), currentUser, &project); err != nil {
		return serviceError(c, err, "failed validating project access")
	}

	var req updateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return utils.Error(c, fiber.StatusBadRequest, "title cannot be empty")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Type != nil {
		if !models.IsValidProjectType(*req.Type) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid project type")
		}
		updates["type"] = *req.Type
	}

	if len(updates) == 0 && req.Contributors == nil {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	var warnings []string
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Project{}).Where("id = ?", projectID).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.Contributors != nil {
			var syncErr error
			warnings, syncErr = h.syncContributors(tx, &project, *req.Contributors)
			if syncErr != nil {
				return syncErr
			}
		}

		return nil
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating project")
	}

	detail, err := h.loadProjectDetail(projectID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading updated project")
	}

	return utils.SuccessWithWarnings(c, fiber.StatusOK, newProjectDetailView(detail), warnings)
}

func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	if err := h.Authz.CanWriteProject(c.Context(), currentUser, &project); err != nil {
		return serviceError(c, err, "failed validating project access")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"issue_id IN (?)",
			tx.Model(&models.Issue{}).Select("id").Where("project_id = ?", projectID),
		).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Issue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Contributor{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", projectID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting project")
	}

	logger.InfoWithUser(currentUser.ID.String(), "project_deleted", map[string]interface{}{
		"project_id": projectID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "project deleted"})
}

func (h *ProjectsHandler) loadProjectDetail(projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := h.DB.
		Preload("Contributors", func(db *gorm.DB) *gorm.DB {
			return db.Order("contributors.created_at ASC")
		}).
		Preload("Contributors.User").
		First(&project, "id = ?", projectID).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// inviteContributors resolves each username to a plain contributor row.
// Unknown, duplicate, or author usernames are skipped; unknown ones are
// reported back as warnings.
func inviteContributors(tx *gorm.DB, project *models.Project, authorUsername string, usernames []string) []string {
	var warnings []string
	seen := map[string]bool{}

	for _, raw := range usernames {
		username := strings.TrimSpace(raw)
		if username == "" || username == authorUsername || seen[username] {
			continue
		}
		seen[username] = true

		var user models.User
		if err := tx.First(&user, "username = ?", username).Error; err != nil {
			warnings = append(warnings, "unknown user: "+username)
			continue
		}

		contributor := models.Contributor{
			UserID:     user.ID,
			ProjectID:  project.ID,
			Permission: models.PermissionContributor,
			Role:       models.RoleContributor,
		}
		if err := tx.Create(&contributor).Error; err != nil {
			warnings = append(warnings, "could not add user: "+username)
		}
	}

	return warnings
}

func (h *ProjectsHandler) syncContributors(tx *gorm.DB, project *models.Project, usernames []string) ([]string, error) {
	desired := map[string]bool{}
	for _, raw := range usernames {
		username := strings.TrimSpace(raw)
		if username != "" {
			desired[username] = true
		}
	}

	var current []models.Contributor
	if err := tx.Preload("User").Where("project_id = ?", project.ID).Find(&current).Error; err != nil {
		return nil, err
	}

	existing := map[string]bool{}
	for i := range current {
		contributor := &current[i]
		isAuthor := project.AuthorID != nil && contributor.UserID == *project.AuthorID
		if isAuthor {
			continue
		}

		existing[contributor.User.Username] = true
		if !desired[contributor.User.Username] {
			if err := tx.Delete(&models.Contributor{}, "id = ?", contributor.ID).Error; err != nil {
				return nil, err
			}
		}
	}

	var warnings []string
	for username := range desired {
		if existing[username] {
			continue
		}

		var user models.User
		if err := tx.First(&user, "username = ?", username).Error; err != nil {
			warnings = append(warnings, "unknown user: "+username)
			continue
		}
		if project.AuthorID != nil && user.ID == *project.AuthorID {
			continue
		}

		contributor := models.Contributor{
			UserID:     user.ID,
			ProjectID:  project.ID,
			Permission: models.PermissionContributor,
			Role:       models.RoleContributor,
		}
		if err := tx.Create(&contributor).Error; err != nil {
			warnings = append(warnings, "could not add user: "+username)
		}
	}

	return warnings, nil
}
