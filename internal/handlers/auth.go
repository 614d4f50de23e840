package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/softdesk/backend/internal/middleware"
	"github.com/softdesk/backend/internal/models"
	"github.com/softdesk/backend/pkg/logger"
	"github.com/softdesk/backend/pkg/utils"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB     *gorm.DB
	MinAge int
}

func NewAuthHandler(db *gorm.DB, minAge int) *AuthHandler {
	return &AuthHandler{DB: db, MinAge: minAge}
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Age             int    `json:"age"`
	CanBeContacted  bool   `json:"canBeContacted"`
	CanDataBeShared bool   `json:"canDataBeShared"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" {
		return utils.Error(c, fiber.StatusBadRequest, "username is required")
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return utils.Error(c, fiber.StatusBadRequest, "a valid email is required")
	}
	if len(req.Password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}
	if req.Password != req.PasswordConfirm {
		return utils.Error(c, fiber.StatusBadRequest, "passwords do not match")
	}
	if req.Age < h.MinAge {
		return utils.Error(c, fiber.StatusBadRequest, "registrant does not meet the minimum age requirement")
	}

	var existing int64
	if err := h.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&existing).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing users")
	}
	if existing > 0 {
		return utils.Error(c, fiber.StatusConflict, "username or email is already taken")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	user := models.User{
		Username:        req.Username,
		Email:           req.Email,
		PasswordHash:    hash,
		Age:             req.Age,
		Role:            models.UserRoleUser,
		CanBeContacted:  req.CanBeContacted,
		CanDataBeShared: req.CanDataBeShared,
	}

	if err := h.DB.Create(&user).Error; err != nil {
		return utils.Error(c, fiber.StatusConflict, "username or email is already taken")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "user_registered", map[string]interface{}{
		"username": user.Username,
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"token": token,
		"user":  newAccountView(&user, true),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.DB.First(&user, "username = ?", strings.TrimSpace(req.Username)).Error; err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		logger.Warn("login_failed", map[string]interface{}{
			"username": req.Username,
			"ip":       c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user":  newAccountView(&user, true),
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	return utils.Success(c, fiber.StatusOK, newAccountView(currentUser, true))
}

type updateMeRequest struct {
	Email           *string `json:"email"`
	CanBeContacted  *bool   `json:"canBeContacted"`
	CanDataBeShared *bool   `json:"canDataBeShared"`
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		if email == "" || !strings.Contains(email, "@") {
			return utils.Error(c, fiber.StatusBadRequest, "a valid email is required")
		}

		var taken int64
		if err := h.DB.Model(&models.User{}).
			Where("email = ? AND id <> ?", email, currentUser.ID).
			Count(&taken).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed checking email availability")
		}
		if taken > 0 {
			return utils.Error(c, fiber.StatusConflict, "email is already taken")
		}

		updates["email"] = email
	}
	if req.CanBeContacted != nil {
		updates["can_be_contacted"] = *req.CanBeContacted
	}
	if req.CanDataBeShared != nil {
		updates["can_data_be_shared"] = *req.CanDataBeShared
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user")
	}

	var updated models.User
	if err := h.DB.First(&updated, "id = ?", currentUser.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching updated user")
	}

	return utils.Success(c, fiber.StatusOK, newAccountView(&updated, true))
}
