package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/softdesk/backend/internal/models"
)

// Response shapes are distinct per operation instead of runtime-trimmed
// serializations. Every place a user appears goes through userView, which
// drops the email entirely unless that user agreed to be contacted. The
// check is about the represented user, not the viewer: admins see the
// field omitted too.

type userView struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
}

func newUserView(user *models.User) userView {
	view := userView{
		ID:       user.ID,
		Username: user.Username,
	}
	if user.CanBeContacted {
		view.Email = user.Email
	}
	return view
}

// accountView is the full profile shape used on the user-management and
// auth surfaces. The consent rule applies here too: another user's email
// is omitted unless they agreed to be contacted, even for admin viewers.
// Users always see their own email.
type accountView struct {
	ID              uuid.UUID       `json:"id"`
	Username        string          `json:"username"`
	Email           string          `json:"email,omitempty"`
	Age             int             `json:"age"`
	Role            models.UserRole `json:"role"`
	CanBeContacted  bool            `json:"canBeContacted"`
	CanDataBeShared bool            `json:"canDataBeShared"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func newAccountView(user *models.User, self bool) accountView {
	view := accountView{
		ID:              user.ID,
		Username:        user.Username,
		Age:             user.Age,
		Role:            user.Role,
		CanBeContacted:  user.CanBeContacted,
		CanDataBeShared: user.CanDataBeShared,
		CreatedAt:       user.CreatedAt,
	}
	if self || user.CanBeContacted {
		view.Email = user.Email
	}
	return view
}

type contributorView struct {
	ID         uuid.UUID                    `json:"id"`
	ProjectID  uuid.UUID                    `json:"projectID"`
	Permission models.ContributorPermission `json:"permission"`
	Role       string                       `json:"role"`
	User       userView                     `json:"user"`
}

func newContributorView(contributor *models.Contributor) contributorView {
	return contributorView{
		ID:         contributor.ID,
		ProjectID:  contributor.ProjectID,
		Permission: contributor.Permission,
		Role:       contributor.Role,
		User:       newUserView(&contributor.User),
	}
}

type projectListItem struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	Type      models.ProjectType `json:"type"`
	AuthorID  *uuid.UUID         `json:"authorID"`
	CreatedAt time.Time          `json:"createdAt"`
}

func newProjectListItem(project *models.Project) projectListItem {
	return projectListItem{
		ID:        project.ID,
		Title:     project.Title,
		Type:      project.Type,
		AuthorID:  project.AuthorID,
		CreatedAt: project.CreatedAt,
	}
}

type projectDetailView struct {
	ID           uuid.UUID          `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Type         models.ProjectType `json:"type"`
	AuthorID     *uuid.UUID         `json:"authorID"`
	CreatedAt    time.Time          `json:"createdAt"`
	Contributors []contributorView  `json:"contributors"`
}

func newProjectDetailView(project *models.Project) projectDetailView {
	contributors := make([]contributorView, 0, len(project.Contributors))
	for i := range project.Contributors {
		contributors = append(contributors, newContributorView(&project.Contributors[i]))
	}

	return projectDetailView{
		ID:           project.ID,
		Title:        project.Title,
		Description:  project.Description,
		Type:         project.Type,
		AuthorID:     project.AuthorID,
		CreatedAt:    project.CreatedAt,
		Contributors: contributors,
	}
}

type issueView struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Tag         models.IssueTag      `json:"tag"`
	Priority    models.IssuePriority `json:"priority"`
	Status      models.IssueStatus   `json:"status"`
	ProjectID   uuid.UUID            `json:"projectID"`
	AuthorID    *uuid.UUID           `json:"authorID"`
	AssigneeID  *uuid.UUID           `json:"assigneeID"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func newIssueView(issue *models.Issue) issueView {
	return issueView{
		ID:          issue.ID,
		Title:       issue.Title,
		Description: issue.Description,
		Tag:         issue.Tag,
		Priority:    issue.Priority,
		Status:      issue.Status,
		ProjectID:   issue.ProjectID,
		AuthorID:    issue.AuthorID,
		AssigneeID:  issue.AssigneeID,
		CreatedAt:   issue.CreatedAt,
	}
}

type commentView struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	IssueID     uuid.UUID  `json:"issueID"`
	AuthorID    *uuid.UUID `json:"authorID"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func newCommentView(comment *models.Comment) commentView {
	return commentView{
		ID:          comment.ID,
		Description: comment.Description,
		IssueID:     comment.IssueID,
		AuthorID:    comment.AuthorID,
		CreatedAt:   comment.CreatedAt,
	}
}
