package service

import (
	"context"
	"regexp"
	"strings"

	"contentflow/internal/models"
	"contentflow/internal/repository"
)

// hashtagRegex matches a # followed by word characters, including Cyrillic
// letters so captions in those alphabets tag correctly.
var hashtagRegex = regexp.MustCompile(`#([\wа-яА-ЯёЁїЇіІєЄґҐ]+)`)

type TagService struct {
	tagRepo repository.TagRepository
}

func NewTagService(tagRepo repository.TagRepository) *TagService {
	return &TagService{tagRepo: tagRepo}
}

// ExtractTagNames pulls hashtag names out of a caption, lowercased, in
// order of appearance. Duplicates are kept; deduplication happens when the
// tag set is persisted.
func ExtractTagNames(caption string) []string {
	matches := hashtagRegex.FindAllStringSubmatch(caption, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.ToLower(m[1]))
	}
	return names
}

// SyncPostTags makes the post's persisted tag set match the hashtags in its
// caption. Always a full replace; a caption with no hashtags clears the set.
func (s *TagService) SyncPostTags(ctx context.Context, post *models.Post) error {
	names := ExtractTagNames(post.Caption)
	return s.tagRepo.ReplaceForPost(ctx, post, names)
}

// GetByName resolves a tag by its case-insensitive name; nil when absent.
func (s *TagService) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	return s.tagRepo.GetByName(ctx, name)
}
