package models

import "github.com/google/uuid"

type IssueTag string

const (
	IssueTagBug         IssueTag = "BUG"
	IssueTagImprovement IssueTag = "IMPROVEMENT"
	IssueTagTask        IssueTag = "TASK"
)

type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "LOW"
	IssuePriorityMedium IssuePriority = "MEDIUM"
	IssuePriorityHigh   IssuePriority = "HIGH"
)

type IssueStatus string

const (
	IssueStatusTodo       IssueStatus = "TODO"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusDone       IssueStatus = "DONE"
)

type Issue struct {
	BaseModel
	Title       string        `json:"title" gorm:"type:varchar(128);not null"`
	Description string        `json:"description" gorm:"type:varchar(2048);not null"`
	Tag         IssueTag      `json:"tag" gorm:"type:varchar(20);not null;default:'TASK'"`
	Priority    IssuePriority `json:"priority" gorm:"type:varchar(10);not null;default:'MEDIUM'"`
	Status      IssueStatus   `json:"status" gorm:"type:varchar(20);not null;default:'IN_PROGRESS'"`
	ProjectID   uuid.UUID     `json:"projectID" gorm:"type:uuid;not null;index"`
	AuthorID    *uuid.UUID    `json:"authorID" gorm:"type:uuid;index"`
	AssigneeID  *uuid.UUID    `json:"assigneeID" gorm:"type:uuid;index"`
	Project     Project       `json:"-" gorm:"foreignKey:ProjectID"`
	Author      *User         `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Assignee    *User         `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	Comments    []Comment     `json:"-" gorm:"foreignKey:IssueID"`
}

func IsValidIssueTag(value IssueTag) bool {
	switch value {
	case IssueTagBug, IssueTagImprovement, IssueTagTask:
		return true
	default:
		return false
	}
}

func IsValidIssuePriority(value IssuePriority) bool {
	switch value {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh:
		return true
	default:
		return false
	}
}

func IsValidIssueStatus(value IssueStatus) bool {
	switch value {
	case IssueStatusTodo, IssueStatusInProgress, IssueStatusDone:
		return true
	default:
		return false
	}
}
