// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account scoped to one school.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Nickname string `gorm:"not null;uniqueIndex:idx_school_nickname" json:"nickname"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	School   string `gorm:"not null;index;uniqueIndex:idx_school_nickname" json:"school"`

	// NetUpvotes and Tier form the reputation profile. Both are mutated only
	// by the vote pipeline, never written directly by handlers.
	NetUpvotes int    `gorm:"not null;default:0" json:"net_upvotes"`
	Tier       string `gorm:"not null;default:Bronze" json:"tier"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}
