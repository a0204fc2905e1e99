package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is a buyer/seller thread attached to one marketplace listing.
// At most one conversation exists per (listing, buyer).
type Conversation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ListingID uint           `gorm:"not null;uniqueIndex:idx_listing_buyer" json:"listing_id"`
	Listing   *Listing       `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	BuyerID   uint           `gorm:"not null;uniqueIndex:idx_listing_buyer" json:"buyer_id"`
	Buyer     *User          `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID  uint           `gorm:"not null;index" json:"seller_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Messages  []Message      `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// Message is one message inside a buyer/seller conversation.
type Message struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ConversationID uint           `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint           `gorm:"not null;index" json:"sender_id"`
	Sender         *User          `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	IsRead         bool           `gorm:"default:false" json:"is_read"`
	ReadAt         *time.Time     `json:"read_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
