package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a forum post. Comments are votable targets
// and carry the same cached aggregate fields as posts.
type Comment struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Content string `gorm:"type:text;not null" json:"content"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user"`
	PostID  uint   `gorm:"not null;index" json:"post_id"`

	UpCount   int     `gorm:"not null;default:0" json:"up_count"`
	DownCount int     `gorm:"not null;default:0" json:"down_count"`
	HotScore  float64 `gorm:"not null;default:0" json:"hot_score"`
	Version   uint    `gorm:"not null;default:0" json:"-"`

	MyVote int `gorm:"-" json:"my_vote"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
