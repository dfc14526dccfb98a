package model

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Project is the unit of membership. Members keeps emails in invite order.
type Project struct {
	ID         int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string                      `gorm:"not null" json:"name"`
	Members    datatypes.JSONSlice[string] `gorm:"not null" json:"members"`
	CurrSprint int                         `gorm:"not null;default:1" json:"curr_sprint"`
	CreatedAt  time.Time                   `gorm:"autoCreateTime" json:"created_at"`
}

// HasMember reports whether email is in the project's member list.
func (p *Project) HasMember(email string) bool {
	return slices.Contains(p.Members, email)
}
