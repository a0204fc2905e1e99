package models

import (
	"time"

	"gorm.io/gorm"
)

// Board types for forum posts.
const (
	BoardFree     = "free"
	BoardAcademic = "academic"
)

// ValidBoard reports whether board names a known forum board.
func ValidBoard(board string) bool {
	return board == BoardFree || board == BoardAcademic
}

// Post represents a forum post on a school board.
type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	Board   string `gorm:"not null;index:idx_posts_board" json:"board"`
	School  string `gorm:"not null;index:idx_posts_board" json:"school"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user"`

	// UpCount/DownCount are the cached vote aggregate. HotScore is derived
	// from the aggregate and CreatedAt; it is cached for sort queries and
	// always recomputable. All three are written only by the vote pipeline,
	// guarded by Version.
	UpCount   int     `gorm:"not null;default:0" json:"up_count"`
	DownCount int     `gorm:"not null;default:0" json:"down_count"`
	HotScore  float64 `gorm:"not null;default:0;index" json:"hot_score"`
	Version   uint    `gorm:"not null;default:0" json:"-"`

	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	// MyVote is the requesting user's vote value (computed, -1/0/+1)
	MyVote int `gorm:"-" json:"my_vote"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
