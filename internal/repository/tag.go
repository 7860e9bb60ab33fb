package repository

import (
	"context"
	"errors"

	"contentflow/internal/models"

	"gorm.io/gorm"
)

// TagRepository defines persistence operations for tags and their
// associations with posts.
type TagRepository interface {
	GetOrCreate(ctx context.Context, name string) (*models.Tag, error)
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	ReplaceForPost(ctx context.Context, post *models.Post, names []string) error
	Unreferenced(ctx context.Context) ([]models.Tag, error)
	Delete(ctx context.Context, id uint) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).
		Where("name = ?", models.NormalizeTagName(name)).
		First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &tag, nil
}

// GetOrCreate returns the tag with the given (case-insensitive) name,
// creating it when missing. A concurrent insert losing the race on the
// unique index is re-read instead of surfaced.
func (r *tagRepository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	tag, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}

	created := &models.Tag{Name: name}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		if isUniqueConstraintError(err) {
			return r.GetByName(ctx, name)
		}
		return nil, models.NewInternalError(err)
	}
	return created, nil
}

// ReplaceForPost clears the post's tag associations and re-adds one per
// name, creating missing Tag rows. A full replace, not a diff.
func (r *tagRepository) ReplaceForPost(ctx context.Context, post *models.Post, names []string) error {
	tx := r.db.WithContext(ctx)

	if err := tx.Model(post).Association("Tags").Clear(); err != nil {
		return models.NewInternalError(err)
	}

	seen := make(map[string]struct{}, len(names))
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		normalized := models.NormalizeTagName(name)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}

		tag, err := r.GetOrCreate(ctx, normalized)
		if err != nil {
			return err
		}
		tags = append(tags, *tag)
	}

	if len(tags) == 0 {
		post.Tags = nil
		return nil
	}
	if err := tx.Model(post).Association("Tags").Append(&tags); err != nil {
		return models.NewInternalError(err)
	}
	post.Tags = tags
	return nil
}

// Unreferenced lists tags with no remaining post association; used by the
// seed CLI to prune tags left behind by deleted posts.
func (r *tagRepository) Unreferenced(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM post_tags WHERE post_tags.tag_id = tags.id)").
		Find(&tags).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Tag{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
