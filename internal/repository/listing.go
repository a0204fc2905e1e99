package repository

import (
	"context"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/cache"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"gorm.io/gorm"
)

// ListingRepository defines the interface for marketplace listing operations
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	List(ctx context.Context, school, status string, limit, offset int) ([]*models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id uint) error
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	err := cache.Aside(ctx, cache.ListingKey(id), &listing, cache.ListingTTL, func() error {
		return r.db.WithContext(ctx).Preload("Seller").First(&listing, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, school, status string, limit, offset int) ([]*models.Listing, error) {
	var listings []*models.Listing
	q := r.db.WithContext(ctx).
		Preload("Seller").
		Where("school = ?", school)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	err := r.db.WithContext(ctx).Save(listing).Error
	if err == nil {
		cache.InvalidateListing(ctx, listing.ID)
	}
	return err
}

func (r *listingRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Delete(&models.Listing{}, id).Error
	if err == nil {
		cache.InvalidateListing(ctx, id)
	}
	return err
}
