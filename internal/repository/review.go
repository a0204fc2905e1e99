package repository

import (
	"context"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository defines the interface for course review operations
type ReviewRepository interface {
	Create(ctx context.Context, review *models.CourseReview) error
	ListByCourse(ctx context.Context, school, courseCode string, limit, offset int) ([]*models.CourseReview, error)
	// AverageRating returns the mean rating for one course, 0 when unreviewed.
	AverageRating(ctx context.Context, school, courseCode string) (float64, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.CourseReview, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.CourseReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.CourseReview, error) {
	var review models.CourseReview
	if err := r.db.WithContext(ctx).Preload("User").First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByCourse(ctx context.Context, school, courseCode string, limit, offset int) ([]*models.CourseReview, error) {
	var reviews []*models.CourseReview
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("school = ? AND course_code = ?", school, courseCode).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) AverageRating(ctx context.Context, school, courseCode string) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&models.CourseReview{}).
		Select("AVG(rating)").
		Where("school = ? AND course_code = ?", school, courseCode).
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.CourseReview{}, id).Error
}
