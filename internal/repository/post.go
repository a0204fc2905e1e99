package repository

import (
	"context"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/cache"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"
	"github.com/dphkjp2001/CNAPSS-sub001/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for forum post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, school, board, sort string, limit, offset int) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return r.applyPostDetails(r.db.WithContext(ctx)).
			Preload("User").
			First(&post, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, school, board, sort string, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("list", "posts")()
	var posts []*models.Post
	base := r.applyPostDetails(r.db.WithContext(ctx)).
		Preload("User").
		Where("posts.school = ? AND posts.board = ?", school, board)
	err := r.applySort(base, sort).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx)).
		Preload("User").
		Where("posts.user_id = ?", userID).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// applySort appends the ORDER BY clause for the requested sort type. hot_score
// is maintained by the vote pipeline, so "hot" is a plain index-backed sort.
func (r *postRepository) applySort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "hot":
		return db.Order("posts.hot_score DESC, posts.created_at DESC")
	case "top":
		return db.Order("(posts.up_count - posts.down_count) DESC, posts.created_at DESC")
	default: // "new" and anything unrecognized
		return db.Order("posts.created_at DESC")
	}
}

// applyPostDetails adds the comment-count subquery to fetch counts in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) as comments_count")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()
	err := r.db.WithContext(ctx).Save(post).Error
	if err == nil {
		cache.InvalidatePost(ctx, post.ID)
	}
	return err
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()
	err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
	if err == nil {
		cache.InvalidatePost(ctx, id)
	}
	return err
}
