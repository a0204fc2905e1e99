package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing status values.
const (
	ListingActive = "active"
	ListingSold   = "sold"
)

// Listing represents a marketplace item posted by a seller.
type Listing struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Price       int    `gorm:"not null" json:"price"`
	Status      string `gorm:"not null;default:active" json:"status"`
	School      string `gorm:"not null;index" json:"school"`
	SellerID    uint   `gorm:"not null;index" json:"seller_id"`
	Seller      User   `gorm:"foreignKey:SellerID" json:"seller"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
