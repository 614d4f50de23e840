package models

import "github.com/google/uuid"

type ContributorPermission string

const (
	PermissionResponsible ContributorPermission = "responsible"
	PermissionContributor ContributorPermission = "contributor"
)

const (
	RoleAuthor      = "Author"
	RoleContributor = "Contributor"
)

// The (user, project) pair is unique at the store level; the index is the
// authoritative guard against concurrent duplicate inserts.
type Contributor struct {
	BaseModel
	UserID     uuid.UUID             `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_project"`
	ProjectID  uuid.UUID             `json:"projectID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_project"`
	Permission ContributorPermission `json:"permission" gorm:"type:varchar(20);not null;default:'contributor'"`
	Role       string                `json:"role" gorm:"type:varchar(64);not null;default:'Contributor'"`
	User       User                  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Project    Project               `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}
