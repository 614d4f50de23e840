package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/softdesk/backend/internal/models"
	"gorm.io/gorm"
)

type MembershipService struct {
	DB *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{DB: db}
}

// Resolve returns the contributor row binding the user to the project, or
// nil when the user is not a contributor. Project existence is checked
// first so a missing project surfaces as NotFoundError rather than leaking
// a permission failure.
func (s *MembershipService) Resolve(ctx context.Context, projectID, userID uuid.UUID) (*models.Contributor, error) {
	var project models.Project
	if err := s.DB.WithContext(ctx).Select("id").First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("project")
		}
		return nil, err
	}

	var contributor models.Contributor
	err := s.DB.WithContext(ctx).First(&contributor, "project_id = ? AND user_id = ?", projectID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &contributor, nil
}
