package repository

import (
	"context"
	"time"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"gorm.io/gorm"
)

// ConversationRepository defines the interface for buyer/seller messaging operations
type ConversationRepository interface {
	// GetOrCreate returns the conversation for (listing, buyer), creating it
	// on first contact.
	GetOrCreate(ctx context.Context, listingID, buyerID, sellerID uint) (*models.Conversation, error)
	GetByID(ctx context.Context, id uint) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uint) ([]*models.Conversation, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]*models.Message, error)
	// MarkRead marks every message in the conversation not sent by readerID as read.
	MarkRead(ctx context.Context, conversationID, readerID uint) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) GetOrCreate(ctx context.Context, listingID, buyerID, sellerID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ?", listingID, buyerID).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	conv = models.Conversation{ListingID: listingID, BuyerID: buyerID, SellerID: sellerID}
	if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Buyer").
		First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Buyer").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *conversationRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		// Bump the conversation so inbox ordering follows latest activity.
		return tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("updated_at", time.Now()).Error
	})
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]*models.Message, error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *conversationRepository) MarkRead(ctx context.Context, conversationID, readerID uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
}
