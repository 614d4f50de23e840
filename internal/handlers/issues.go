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

type IssuesHandler struct {
	DB    *gorm.DB
	Authz *services.AuthzService
}

func NewIssuesHandler(db *gorm.DB, authz *services.AuthzService) *IssuesHandler {
	return &IssuesHandler{DB: db, Authz: authz}
}

func (h *IssuesHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	if err := h.Authz.CanListOrCreateIssue(c.Context(), currentUser, projectID); err != nil {
		return serviceError(c, err, "failed validating project access")
	}

	p := utils.ParsePagination(c)
	query := h.DB.Model(&models.Issue{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting issues")
	}

	var issues []models.Issue
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&issues).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing issues")
	}

	views := make([]issueView, 0, len(issues))
	for i := range issues {
		views = append(views, newIssueView(&issues[i]))
	}

	return utils.Paginated(c, views, p.Page, p.Limit, total)
}

type createIssueRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Tag         *models.IssueTag      `json:"tag"`
	Priority    *models.IssuePriority `json:"priority"`
	Status      *models.IssueStatus   `json:"status"`
	AssigneeID  *uuid.UUID            `json:"assigneeID"`
}

func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	if err := h.Authz.CanListOrCreateIssue(c.Context(), currentUser, projectID); err != nil {
		return serviceError(c, err, "failed validating project access")
	}

	var req createIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return utils.Error(c, fiber.StatusBadRequest, "title is required")
	}

	authorID := currentUser.ID
	issue := models.Issue{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Tag:         models.IssueTagTask,
		Priority:    models.IssuePriorityMedium,
		Status:      models.IssueStatusInProgress,
		ProjectID:   projectID,
		AuthorID:    &authorID,
	}

	if req.Tag != nil {
		if !models.IsValidIssueTag(*req.Tag) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid issue tag")
		}
		issue.Tag = *req.Tag
	}
	if req.Priority != nil {
		if !models.IsValidIssuePriority(*req.Priority) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid issue priority")
		}
		issue.Priority = *req.Priority
	}
	if req.Status != nil {
		if !models.IsValidIssueStatus(*req.Status) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid issue status")
		}
		issue.Status = *req.Status
	}
	if req.AssigneeID != nil {
		if err := h.requireContributor(projectID, *req.AssigneeID); err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "assignee must be a contributor of the project")
		}
		issue.AssigneeID = req.AssigneeID
	}

	if err := h.DB.Create(&issue).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating issue")
	}

	logger.InfoWithUser(currentUser.ID.String(), "issue_created", map[string]interface{}{
		"project_id": projectID.String(),
		"issue_id":   issue.ID.String(),
	})

	return utils.Success(c, fiber.StatusCreated, newIssueView(&issue))
}

func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	if err := h.Authz.CanListOrCreateIssue(c.Context(), currentUser, projectID); err != nil {
		return serviceError(c, err, "failed validating project access")
	}

	issue, err := h.resolveIssue(c, projectID)
	if err != nil {
		return err
	}

	return utils.Success(c, fiber.StatusOK, newIssueView(issue))
}

type updateIssueRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Tag         *models.IssueTag      `json:"tag"`
	Priority    *models.IssuePriority `json:"priority"`
	Status      *models.IssueStatus   `json:"status"`
	AssigneeID  nullableUUID          `json:"assigneeID"`
}

func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	issue, err := h.resolveIssue(c, projectID)
	if err != nil {
		return err
	}

	if err := h.Authz.CanWriteIssue(c.Context(), currentUser, issue); err != nil {
		return serviceError(c, err, "failed validating issue access")
	}

	var req updateIssueRequest
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
	if req.Tag != nil {
		if !models.IsValidIssueTag(*req.Tag) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid issue tag")
		}
		updates["tag"] = *req.Tag
	}
	if req.Priority != nil {
		if !models.IsValidIssuePriority(*req.Priority) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid issue priority")
		}
		updates["priority"] = *req.Priority
	}
	if req.Status != nil {
		if !models.IsValidIssueStatus(*req.Status) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid issue status")
		}
		updates["status"] = *req.Status
	}
	if req.AssigneeID.Set {
		if req.AssigneeID.Value == nil {
			updates["assignee_id"] = nil
		} else {
			if err := h.requireContributor(projectID, *req.AssigneeID.Value); err != nil {
				return utils.Error(c, fiber.StatusBadRequest, "assignee must be a contributor of the project")
			}
			updates["assignee_id"] = *req.AssigneeID.Value
		}
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(&models.Issue{}).Where("id = ?", issue.ID).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating issue")
	}

	var updated models.Issue
	if err := h.DB.First(&updated, "id = ?", issue.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading updated issue")
	}

	return utils.Success(c, fiber.StatusOK, newIssueView(&updated))
}

func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	issue, err := h.resolveIssue(c, projectID)
	if err != nil {
		return err
	}

	if err := h.Authz.CanWriteIssue(c.Context(), currentUser, issue); err != nil {
		return serviceError(c, err, "failed validating issue access")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("issue_id = ?", issue.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Issue{}, "id = ?", issue.ID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting issue")
	}

	logger.InfoWithUser(currentUser.ID.String(), "issue_deleted", map[string]interface{}{
		"project_id": projectID.String(),
		"issue_id":   issue.ID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "issue deleted"})
}

// resolveIssue loads the issue scoped to the path's project; an issue that
// exists under a different project reads as not-found.
func (h *IssuesHandler) resolveIssue(c *fiber.Ctx, projectID uuid.UUID) (*models.Issue, error) {
	issueID, err := parseUUID(c.Params("issueId"))
	if err != nil {
		return nil, utils.Error(c, fiber.StatusBadRequest, "invalid issue id")
	}

	var issue models.Issue
	if err := h.DB.First(&issue, "id = ? AND project_id = ?", issueID, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.Error(c, fiber.StatusNotFound, "issue not found")
		}
		return nil, utils.Error(c, fiber.StatusInternalServerError, "failed loading issue")
	}

	return &issue, nil
}

func (h *IssuesHandler) requireContributor(projectID, userID uuid.UUID) error {
	var contributor models.Contributor
	return h.DB.First(&contributor, "project_id = ? AND user_id = ?", projectID, userID).Error
}
