package repository

import (
	"context"
	"errors"

	"contentflow/internal/cache"
	"contentflow/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations, including
// the read-optimized feed selectors.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error)
	FeedByTag(ctx context.Context, viewerID uint, tagName string, limit, offset int) ([]*models.Post, error)
	FeedByAuthor(ctx context.Context, viewerID, authorID uint, limit, offset int) ([]*models.Post, error)
	CountFeed(ctx context.Context) (int64, error)
	CountFeedByTag(ctx context.Context, tagName string) (int64, error)
	CountFeedByAuthor(ctx context.Context, authorID uint) (int64, error)
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
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFeed(ctx)
	return nil
}

// applyFeedAnnotations adds the per-post like annotations to the page query
// itself: a correlated COUNT for likes_count and, when a viewer is known, a
// correlated EXISTS for has_liked. Keeping both inside the single page query
// is what holds the feed to a constant number of round-trips.
func (r *postRepository) applyFeedAnnotations(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+
			", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS has_liked",
			viewerID)
	}
	return db.Select(selectQuery + ", FALSE AS has_liked")
}

// feedQuery is the shared base for all three feed entry points: annotated
// page query plus eager loads for author, images and tags, newest first with
// the ID as a stable tie-breaker.
func (r *postRepository) feedQuery(ctx context.Context, viewerID uint) *gorm.DB {
	return r.applyFeedAnnotations(r.db.WithContext(ctx).Model(&models.Post{}), viewerID).
		Preload("Author").
		Preload("Images").
		Preload("Tags").
		Order("posts.created_at DESC, posts.id DESC")
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := r.applyFeedAnnotations(r.db.WithContext(ctx).Model(&models.Post{}), viewerID).
		Preload("Author").
		Preload("Images").
		Preload("Tags").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.feedQuery(ctx, viewerID).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) FeedByTag(ctx context.Context, viewerID uint, tagName string, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.feedQuery(ctx, viewerID).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("tags.name = ?", models.NormalizeTagName(tagName)).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) FeedByAuthor(ctx context.Context, viewerID, authorID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.feedQuery(ctx, viewerID).
		Where("posts.author_id = ?", authorID).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) CountFeed(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) CountFeedByTag(ctx context.Context, tagName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("tags.name = ?", models.NormalizeTagName(tagName)).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) CountFeedByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("posts.author_id = ?", authorID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFeed(ctx)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Select("Tags").Delete(&models.Post{ID: id}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFeed(ctx)
	return nil
}
