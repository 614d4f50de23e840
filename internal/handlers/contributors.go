package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/softdesk/backend/internal/middleware"
	"github.com/softdesk/backend/internal/models"
	"github.com/softdesk/backend/internal/services"
	"github.com/softdesk/backend/pkg/logger"
	"github.com/softdesk/backend/pkg/utils"
	"gorm.io/gorm"
)

type ContributorsHandler struct {
	DB    *gorm.DB
	Authz *services.AuthzService
}

func NewContributorsHandler(db *gorm.DB, authz *services.AuthzService) *ContributorsHandler {
	return &ContributorsHandler{DB: db, Authz: authz}
}

func (h *ContributorsHandler) List(c *fiber.Ctx) error {
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

	p := utils.ParsePagination(c)

	var total int64
	if err := h.DB.Model(&models.Contributor{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting contributors")
	}

	var contributors []models.Contributor
	if err := utils.ApplyPagination(
		h.DB.Preload("User").Where("project_id = ?", projectID).Order("created_at ASC"), p,
	).Find(&contributors).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing contributors")
	}

	views := make([]contributorView, 0, len(contributors))
	for i := range contributors {
		views = append(views, newContributorView(&contributors[i]))
	}

	return utils.Paginated(c, views, p.Page, p.Limit, total)
}

// Get addresses a contributor by the user id, matching the nesting of the
// resource path.
func (h *ContributorsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.Authz.CanReadProject(c.Context(), currentUser, projectID); err != nil {
		return serviceError(c, err, "failed validating project access")
	}

	var contributor models.Contributor
	if err := h.DB.Preload("User").First(&contributor, "project_id = ? AND user_id = ?", projectID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "contributor not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading contributor")
	}

	return utils.Success(c, fiber.StatusOK, newContributorView(&contributor))
}

type addContributorRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (h *ContributorsHandler) Create(c *fiber.Ctx) error {
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

	if err := h.Authz.CanCreateContributor(c.Context(), currentUser, &project); err != nil {
		return serviceError(c, err, "failed validating project access")
	}

	var req addContributorRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return utils.Error(c, fiber.StatusBadRequest, "username is required")
	}

	var user models.User
	if err := h.DB.First(&user, "username = ?", req.Username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusBadRequest, "user does not exist")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = models.RoleContributor
	}

	contributor := models.Contributor{
		UserID:     user.ID,
		ProjectID:  projectID,
		Permission: models.PermissionContributor,
		Role:       role,
	}

	// The unique (user, project) index is the authoritative guard; a
	// concurrent duplicate insert fails here regardless of any fast-path
	// check.
	if err := h.DB.Create(&contributor).Error; err != nil {
		return utils.Error(c, fiber.StatusConflict, "user is already a contributor of the project")
	}

	contributor.User = user

	logger.InfoWithUser(currentUser.ID.String(), "contributor_added", map[string]interface{}{
		"project_id": projectID.String(),
		"user_id":    user.ID.String(),
	})

	return utils.Success(c, fiber.StatusCreated, newContributorView(&contributor))
}

func (h *ContributorsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	var target models.Contributor
	if err := h.DB.First(&target, "project_id = ? AND user_id = ?", projectID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "contributor not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading contributor")
	}

	if err := h.Authz.CanDeleteContributor(c.Context(), currentUser, &project, &target); err != nil {
		return serviceError(c, err, "failed validating project access")
	}

	if err := h.DB.Delete(&models.Contributor{}, "id = ?", target.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed removing contributor")
	}

	logger.InfoWithUser(currentUser.ID.String(), "contributor_removed", map[string]interface{}{
		"project_id": projectID.String(),
		"user_id":    userID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "contributor removed"})
}
