package models

import (
	"time"

	"gorm.io/gorm"
)

// CourseReview is a review of one course section (course code + professor)
// written by a student at the same school.
type CourseReview struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	School     string `gorm:"not null;index:idx_reviews_course" json:"school"`
	CourseCode string `gorm:"not null;index:idx_reviews_course" json:"course_code"`
	Professor  string `gorm:"not null" json:"professor"`
	Rating     int    `gorm:"not null" json:"rating"`
	Content    string `gorm:"type:text" json:"content"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	User       User   `gorm:"foreignKey:UserID" json:"user"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
