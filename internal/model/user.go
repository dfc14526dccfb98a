package model

import (
	"time"
)

type User struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	Name           string     `gorm:"not null" json:"name"`
	HashedPassword string     `gorm:"not null" json:"-"`
	OpenProject    *int64     `json:"open_project"`
	ResetToken     *string    `gorm:"index" json:"-"`
	ResetExpires   *time.Time `json:"-"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
