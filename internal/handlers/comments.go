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

type CommentsHandler struct {
	DB    *gorm.DB
	Authz *services.AuthzService
}

func NewCommentsHandler(db *gorm.DB, authz *services.AuthzService) *CommentsHandler {
	return &CommentsHandler{DB: db, Authz: authz}
}

func (h *CommentsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	_, issue, err := h.resolveScope(c, currentUser)
	if err != nil {
		return err
	}

	p := utils.ParsePagination(c)
	query := h.DB.Model(&models.Comment{}).Where("issue_id = ?", issue.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting comments")
	}

	var comments []models.Comment
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&comments).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing comments")
	}

	views := make([]commentView, 0, len(comments))
	for i := range comments {
		views = append(views, newCommentView(&comments[i]))
	}

	return utils.Paginated(c, views, p.Page, p.Limit, total)
}

type createCommentRequest struct {
	Description string `json:"description"`
}

func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	_, issue, err := h.resolveScope(c, currentUser)
	if err != nil {
		return err
	}

	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return utils.Error(c, fiber.StatusBadRequest, "description is required")
	}

	authorID := currentUser.ID
	comment := models.Comment{
		Description: req.Description,
		IssueID:     issue.ID,
		AuthorID:    &authorID,
	}

	if err := h.DB.Create(&comment).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating comment")
	}

	logger.InfoWithUser(currentUser.ID.String(), "comment_created", map[string]interface{}{
		"issue_id":   issue.ID.String(),
		"comment_id": comment.ID.String(),
	})

	return utils.Success(c, fiber.StatusCreated, newCommentView(&comment))
}

func (h *CommentsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	_, issue, err := h.resolveScope(c, currentUser)
	if err != nil {
		return err
	}

	comment, err := h.resolveComment(c, issue.ID)
	if err != nil {
		return err
	}

	return utils.Success(c, fiber.StatusOK, newCommentView(comment))
}

type updateCommentRequest struct {
	Description string `json:"description"`
}

func (h *CommentsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	_, issue, err := h.resolveScope(c, currentUser)
	if err != nil {
		return err
	}

	comment, err := h.resolveComment(c, issue.ID)
	if err != nil {
		return err
	}

	if err := h.Authz.CanWriteComment(c.Context(), currentUser, comment); err != nil {
		return serviceError(c, err, "failed validating comment access")
	}

	var req updateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return utils.Error(c, fiber.StatusBadRequest, "description is required")
	}

	if err := h.DB.Model(&models.Comment{}).Where("id = ?", comment.ID).Update("description", req.Description).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating comment")
	}

	comment.Description = req.Description
	return utils.Success(c, fiber.StatusOK, newCommentView(comment))
}

func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	_, issue, err := h.resolveScope(c, currentUser)
	if err != nil {
		return err
	}

	comment, err := h.resolveComment(c, issue.ID)
	if err != nil {
		return err
	}

	if err := h.Authz.CanWriteComment(c.Context(), currentUser, comment); err != nil {
		return serviceError(c, err, "failed validating comment access")
	}

	if err := h.DB.Delete(&models.Comment{}, "id = ?", comment.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting comment")
	}

	logger.InfoWithUser(currentUser.ID.String(), "comment_deleted", map[string]interface{}{
		"issue_id":   issue.ID.String(),
		"comment_id": comment.ID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "comment deleted"})
}

// resolveScope loads the issue and runs the comment-scope authorization,
// which validates the project/issue pairing before any permission check.
func (h *CommentsHandler) resolveScope(c *fiber.Ctx, currentUser *models.User) (uuid.UUID, *models.Issue, error) {
	projectID, err := parseUUID(c.Params("projectId"))
	if err != nil {
		return uuid.Nil, nil, utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}
	issueID, err := parseUUID(c.Params("issueId"))
	if err != nil {
		return uuid.Nil, nil, utils.Error(c, fiber.StatusBadRequest, "invalid issue id")
	}

	var issue models.Issue
	if err := h.DB.First(&issue, "id = ?", issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, nil, utils.Error(c, fiber.StatusNotFound, "issue not found")
		}
		return uuid.Nil, nil, utils.Error(c, fiber.StatusInternalServerError, "failed loading issue")
	}

	if err := h.Authz.CanListOrCreateComment(c.Context(), currentUser, projectID, &issue); err != nil {
		return uuid.Nil, nil, serviceError(c, err, "failed validating comment access")
	}

	return projectID, &issue, nil
}

func (h *CommentsHandler) resolveComment(c *fiber.Ctx, issueID uuid.UUID) (*models.Comment, error) {
	commentID, err := parseUUID(c.Params("commentId"))
	if err != nil {
		return nil, utils.Error(c, fiber.StatusBadRequest, "invalid comment id")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, "id = ? AND issue_id = ?", commentID, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.Error(c, fiber.StatusNotFound, "comment not found")
		}
		return nil, utils.Error(c, fiber.StatusInternalServerError, "failed loading comment")
	}

	return &comment, nil
}
