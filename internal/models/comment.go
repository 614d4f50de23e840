package models

import "github.com/google/uuid"

type Comment struct {
	BaseModel
	Description string     `json:"description" gorm:"type:varchar(2048);not null"`
	IssueID     uuid.UUID  `json:"issueID" gorm:"type:uuid;not null;index"`
	AuthorID    *uuid.UUID `json:"authorID" gorm:"type:uuid;index"`
	Issue       Issue      `json:"-" gorm:"foreignKey:IssueID"`
	Author      *User      `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}
