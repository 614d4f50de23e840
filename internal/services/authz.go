package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/softdesk/backend/internal/models"
	"gorm.io/gorm"
)

// AuthzService holds every access decision in one place. Each method takes
// the principal explicitly, returns nil to allow, a PermissionError to deny
// with the violated rule, or a NotFoundError when the target (or its stated
// parent) does not exist. Admins bypass membership checks; the membership
// resolver is never consulted for them.
//
// The uniform rule: reading or creating under a collection requires being a
// contributor (or admin); mutating a specific resource requires being its
// author (or admin); project and contributor lifecycle requires being the
// project author (or admin).
type AuthzService struct {
	DB      *gorm.DB
	Members *MembershipService
}

func NewAuthzService(db *gorm.DB, members *MembershipService) *AuthzService {
	return &AuthzService{DB: db, Members: members}
}

func (a *AuthzService) CanReadProject(ctx context.Context, principal *models.User, projectID uuid.UUID) error {
	if principal.IsAdmin() {
		return a.requireProject(ctx, projectID)
	}

	contributor, err := a.Members.Resolve(ctx, projectID, principal.ID)
	if err != nil {
		return err
	}
	if contributor == nil {
		return deny("must be a contributor of the project to view it")
	}
	return nil
}

func (a *AuthzService) CanWriteProject(ctx context.Context, principal *models.User, project *models.Project) error {
	if principal.IsAdmin() {
		return nil
	}
	if isProjectAuthor(project, principal.ID) {
		return nil
	}
	return deny("must be the project author to modify or delete the project")
}

func (a *AuthzService) CanCreateContributor(ctx context.Context, principal *models.User, project *models.Project) error {
	if principal.IsAdmin() {
		return nil
	}
	if isProjectAuthor(project, principal.ID) {
		return nil
	}
	return deny("must be the project author to add contributors")
}

// CanDeleteContributor denies removal of the author for every caller,
// admins included. The invariant is on the target's identity relative to
// the project, not on who is asking.
func (a *AuthzService) CanDeleteContributor(ctx context.Context, principal *models.User, project *models.Project, target *models.Contributor) error {
	if isProjectAuthor(project, target.UserID) {
		return deny("the project author cannot be removed from contributors")
	}

	if principal.IsAdmin() {
		return nil
	}
	if isProjectAuthor(project, principal.ID) {
		return nil
	}
	return deny("must be the project author to remove a contributor")
}

func (a *AuthzService) CanListOrCreateIssue(ctx context.Context, principal *models.User, projectID uuid.UUID) error {
	if principal.IsAdmin() {
		return a.requireProject(ctx, projectID)
	}

	contributor, err := a.Members.Resolve(ctx, projectID, principal.ID)
	if err != nil {
		return err
	}
	if contributor == nil {
		return deny("must be a contributor of the project to access its issues")
	}
	return nil
}

func (a *AuthzService) CanWriteIssue(ctx context.Context, principal *models.User, issue *models.Issue) error {
	if principal.IsAdmin() {
		return nil
	}
	if issue.AuthorID != nil && *issue.AuthorID == principal.ID {
		return nil
	}
	return deny("must be the issue author to modify or delete the issue")
}

// CanListOrCreateComment validates that the issue belongs to the project
// named in the path before any permission evaluation; a mismatch reads as
// not-found, never as a bare denial.
func (a *AuthzService) CanListOrCreateComment(ctx context.Context, principal *models.User, projectID uuid.UUID, issue *models.Issue) error {
	if issue.ProjectID != projectID {
		return notFound("issue")
	}

	if principal.IsAdmin() {
		return nil
	}

	contributor, err := a.Members.Resolve(ctx, projectID, principal.ID)
	if err != nil {
		return err
	}
	if contributor == nil {
		return deny("must be a contributor of the project to access its comments")
	}
	return nil
}

func (a *AuthzService) CanWriteComment(ctx context.Context, principal *models.User, comment *models.Comment) error {
	if principal.IsAdmin() {
		return nil
	}
	if comment.AuthorID != nil && *comment.AuthorID == principal.ID {
		return nil
	}
	return deny("must be the comment author to modify or delete the comment")
}

func (a *AuthzService) requireProject(ctx context.Context, projectID uuid.UUID) error {
	var count int64
	if err := a.DB.WithContext(ctx).Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("project")
	}
	return nil
}

func isProjectAuthor(project *models.Project, userID uuid.UUID) bool {
	return project.AuthorID != nil && *project.AuthorID == userID
}
