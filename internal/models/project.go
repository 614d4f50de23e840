package models

import "github.com/google/uuid"

type ProjectType string

const (
	ProjectTypeBackEnd  ProjectType = "back-end"
	ProjectTypeFrontEnd ProjectType = "front-end"
	ProjectTypeIOS      ProjectType = "ios"
	ProjectTypeAndroid  ProjectType = "android"
)

// AuthorID is nullable: deleting a user clears authorship instead of
// deleting the projects they created.
type Project struct {
	BaseModel
	Title        string        `json:"title" gorm:"type:varchar(128);not null"`
	Description  string        `json:"description" gorm:"type:varchar(2048);not null"`
	Type         ProjectType   `json:"type" gorm:"type:varchar(20);not null"`
	AuthorID     *uuid.UUID    `json:"authorID" gorm:"type:uuid;index"`
	Author       *User         `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Contributors []Contributor `json:"contributors,omitempty" gorm:"foreignKey:ProjectID"`
	Issues       []Issue       `json:"-" gorm:"foreignKey:ProjectID"`
}

func IsValidProjectType(value ProjectType) bool {
	switch value {
	case ProjectTypeBackEnd, ProjectTypeFrontEnd, ProjectTypeIOS, ProjectTypeAndroid:
		return true
	default:
		return false
	}
}
