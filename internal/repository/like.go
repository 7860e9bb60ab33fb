package repository

import (
	"context"

	"contentflow/internal/cache"
	"contentflow/internal/models"

	"gorm.io/gorm"
)

// LikeRepository defines persistence operations for the like ledger.
type LikeRepository interface {
	Toggle(ctx context.Context, userID, postID uint) (liked bool, count int64, err error)
	Count(ctx context.Context, postID uint) (int64, error)
	Exists(ctx context.Context, userID, postID uint) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Toggle flips membership of the (user, post) pair in the like set and
// returns the new state plus the post's total like count.
//
// The insert is attempted unconditionally inside a savepoint; a uniqueness
// violation on (user_id, post_id) means the pair already exists and is
// reinterpreted as "remove the like instead". The unique index is the only
// concurrency control: concurrent duplicate requests resolve
// deterministically without a row lock or a check-then-act read. The count
// is recomputed by aggregation in the same transaction.
func (r *likeRepository) Toggle(ctx context.Context, userID, postID uint) (bool, int64, error) {
	var liked bool
	var count int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Nested transaction = savepoint, so a constraint violation does
		// not poison the outer transaction on PostgreSQL.
		insertErr := tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(&models.Like{UserID: userID, PostID: postID}).Error
		})

		switch {
		case insertErr == nil:
			liked = true
		case isUniqueConstraintError(insertErr):
			if err := tx.Where("user_id = ? AND post_id = ?", userID, postID).
				Delete(&models.Like{}).Error; err != nil {
				return err
			}
			liked = false
		default:
			return insertErr
		}

		return tx.Model(&models.Like{}).
			Where("post_id = ?", postID).
			Count(&count).Error
	})
	if err != nil {
		return false, 0, models.NewInternalError(err)
	}

	cache.InvalidateFeed(ctx)
	return liked, count, nil
}

func (r *likeRepository) Count(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *likeRepository) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
