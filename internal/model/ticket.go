package model

import (
	"time"

	"gorm.io/datatypes"
)

// BacklogSprint is the sprint number of tickets not yet scheduled.
const BacklogSprint = 0

type Ticket struct {
	ID          int64                      `gorm:"primaryKey;autoIncrement"`
	ProjectID   int64                      `gorm:"not null;index:idx_tickets_project_sprint,priority:1"`
	Sprint      int                        `gorm:"not null;default:0;index:idx_tickets_project_sprint,priority:2"`
	ColumnID    int64                      `gorm:"not null;index"`
	EpicID      *int64                     `gorm:"index"`
	Name        string                     `gorm:"not null"`
	Type        string
	Priority    string
	Description string
	Blocks      datatypes.JSONSlice[int64] `gorm:"not null"`
	BlockedBy   datatypes.JSONSlice[int64] `gorm:"not null"`
	StoryPoints float64                    `gorm:"not null;default:0"`
	Assignee    string
	PullRequest string
	Creator     string `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Column Column `gorm:"foreignKey:ColumnID"`
}
