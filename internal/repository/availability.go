package repository

import (
	"context"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/cache"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"gorm.io/gorm"
)

// AvailabilityRepository defines the interface for schedule document operations
type AvailabilityRepository interface {
	// Upsert replaces the availability document for (school, email, term)
	// wholesale: the previous slot list is discarded, not patched.
	Upsert(ctx context.Context, doc *models.Availability) error
	Get(ctx context.Context, school, email, term string) (*models.Availability, error)
	// GetForMembers returns the saved documents for the given member emails.
	// Members with no saved document are simply absent from the result.
	GetForMembers(ctx context.Context, school string, emails []string, term string) ([]*models.Availability, error)
}

type availabilityRepository struct {
	db *gorm.DB
}

// NewAvailabilityRepository creates a new availability repository
func NewAvailabilityRepository(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) Upsert(ctx context.Context, doc *models.Availability) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Availability
		err := tx.Where("school = ? AND email = ? AND term = ?", doc.School, doc.Email, doc.Term).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("availability_id = ?", existing.ID).Delete(&models.BusySlot{}).Error; err != nil {
				return err
			}
			doc.ID = existing.ID
			doc.CreatedAt = existing.CreatedAt
			return tx.Save(doc).Error
		case err == gorm.ErrRecordNotFound:
			return tx.Create(doc).Error
		default:
			return err
		}
	})
	if err == nil {
		cache.InvalidateSchedule(ctx, doc.School, doc.Email, doc.Term)
	}
	return err
}

func (r *availabilityRepository) Get(ctx context.Context, school, email, term string) (*models.Availability, error) {
	var doc models.Availability
	err := cache.Aside(ctx, cache.ScheduleKey(school, email, term), &doc, cache.ScheduleTTL, func() error {
		return r.db.WithContext(ctx).
			Preload("Slots").
			Where("school = ? AND email = ? AND term = ?", school, email, term).
			First(&doc).Error
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *availabilityRepository) GetForMembers(ctx context.Context, school string, emails []string, term string) ([]*models.Availability, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var docs []*models.Availability
	err := r.db.WithContext(ctx).
		Preload("Slots").
		Where("school = ? AND email IN ? AND term = ?", school, emails, term).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}
