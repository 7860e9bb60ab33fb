package service

import (
	"context"

	"contentflow/internal/cache"
	"contentflow/internal/models"
	"contentflow/internal/repository"
	"contentflow/internal/validation"
)

// FeedPageSize is the fixed number of posts per feed page.
const FeedPageSize = 5

type PostService struct {
	postRepo     repository.PostRepository
	imageRepo    repository.ImageRepository
	tagService   *TagService
	imageService *ImageService
}

// Upload is one multipart file from a post form.
type Upload struct {
	Filename string
	Content  []byte
}

type CreatePostInput struct {
	AuthorID uint
	Caption  string
	Uploads  []Upload
}

type UpdatePostInput struct {
	UserID       uint
	PostID       uint
	Caption      string
	Uploads      []Upload
	DeleteImages []uint
}

// FeedPage is one page of the reverse-chronological feed.
type FeedPage struct {
	Posts      []*models.Post `json:"posts"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	TotalCount int64          `json:"total_count"`
	HasNext    bool           `json:"has_next"`
	HasPrev    bool           `json:"has_prev"`
}

func NewPostService(
	postRepo repository.PostRepository,
	imageRepo repository.ImageRepository,
	tagService *TagService,
	imageService *ImageService,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		imageRepo:    imageRepo,
		tagService:   tagService,
		imageService: imageService,
	}
}

// CreatePost stores a new post, derives its tag set from caption hashtags
// and attaches the uploaded images.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if in.Caption == "" {
		return nil, models.NewValidationError("Caption is required")
	}
	if err := validation.ValidateCaption(in.Caption); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(in.Uploads) > MaxImagesPerPost {
		return nil, models.NewValidationError("A post can have at most 5 images")
	}

	post := &models.Post{
		AuthorID: in.AuthorID,
		Caption:  in.Caption,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	if err := s.tagService.SyncPostTags(ctx, post); err != nil {
		return nil, err
	}

	for _, upload := range in.Uploads {
		img, err := s.imageService.Attach(ctx, post, upload.Filename, upload.Content)
		if err != nil {
			return nil, err
		}
		post.Images = append(post.Images, *img)
	}

	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, viewerID)
}

// UpdatePost edits a post's caption, re-deriving the tag set, removing
// images marked for deletion, backfilling missing thumbnails and optionally
// attaching further images. Only the author may edit.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}

	if in.Caption == "" {
		return nil, models.NewValidationError("Caption is required")
	}
	if err := validation.ValidateCaption(in.Caption); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	// Removals happen first so the image budget reflects what remains.
	if len(in.DeleteImages) > 0 {
		if err := s.removeMarkedImages(ctx, post, in.DeleteImages); err != nil {
			return nil, err
		}
	}

	if len(post.Images)+len(in.Uploads) > MaxImagesPerPost {
		return nil, models.NewValidationError("A post can have at most 5 images")
	}

	post.Caption = in.Caption
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	if err := s.tagService.SyncPostTags(ctx, post); err != nil {
		return nil, err
	}

	for i := range post.Images {
		if err := s.imageService.EnsureThumbnail(ctx, &post.Images[i]); err != nil {
			return nil, err
		}
	}
	for _, upload := range in.Uploads {
		img, err := s.imageService.Attach(ctx, post, upload.Filename, upload.Content)
		if err != nil {
			return nil, err
		}
		post.Images = append(post.Images, *img)
	}

	return post, nil
}

// removeMarkedImages deletes the given image IDs from the post, rows and
// files both. Every ID must belong to the post; anything else is rejected
// before any deletion happens.
func (s *PostService) removeMarkedImages(ctx context.Context, post *models.Post, imageIDs []uint) error {
	owned := make(map[uint]int, len(post.Images))
	for i := range post.Images {
		owned[post.Images[i].ID] = i
	}
	for _, id := range imageIDs {
		if _, ok := owned[id]; !ok {
			return models.NewValidationError("Image does not belong to this post")
		}
	}

	removed := make(map[uint]bool, len(imageIDs))
	for _, id := range imageIDs {
		if removed[id] {
			continue
		}
		if err := s.imageService.Remove(ctx, &post.Images[owned[id]]); err != nil {
			return err
		}
		removed[id] = true
	}

	kept := post.Images[:0]
	for i := range post.Images {
		if !removed[post.Images[i].ID] {
			kept = append(kept, post.Images[i])
		}
	}
	post.Images = kept
	return nil
}

// DeletePost removes a post with its images, likes and tag links. Media
// files are deleted after the rows so a failed delete leaves them intact.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return models.NewForbiddenError("Only the author can delete this post")
	}

	images, err := s.imageRepo.GetByPostID(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	for i := range images {
		s.imageService.RemoveFiles(&images[i])
	}
	return nil
}

// Feed returns one page of the global feed, newest first. The anonymous
// first page is served cache-aside; per-viewer pages carry has_liked
// annotations and always hit the database.
func (s *PostService) Feed(ctx context.Context, viewerID uint, page int) (*FeedPage, error) {
	if viewerID == 0 && page <= 1 {
		var cached FeedPage
		err := cache.Aside(ctx, cache.FeedFirstPageKey(), &cached, cache.FeedTTL, func() error {
			fresh, err := s.fetchFeed(ctx, 0, 1)
			if err != nil {
				return err
			}
			cached = *fresh
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &cached, nil
	}
	return s.fetchFeed(ctx, viewerID, page)
}

func (s *PostService) fetchFeed(ctx context.Context, viewerID uint, page int) (*FeedPage, error) {
	count, err := s.postRepo.CountFeed(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.Feed(ctx, viewerID, FeedPageSize, pageOffset(page))
	if err != nil {
		return nil, err
	}
	return buildFeedPage(posts, page, count), nil
}

// FeedByTag returns one page of posts carrying the given hashtag. An
// unknown tag yields an empty page, not an error.
func (s *PostService) FeedByTag(ctx context.Context, viewerID uint, tagName string, page int) (*FeedPage, error) {
	count, err := s.postRepo.CountFeedByTag(ctx, tagName)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.FeedByTag(ctx, viewerID, tagName, FeedPageSize, pageOffset(page))
	if err != nil {
		return nil, err
	}
	return buildFeedPage(posts, page, count), nil
}

// FeedByAuthor returns one page of a single author's posts for their
// profile page.
func (s *PostService) FeedByAuthor(ctx context.Context, viewerID, authorID uint, page int) (*FeedPage, error) {
	count, err := s.postRepo.CountFeedByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.FeedByAuthor(ctx, viewerID, authorID, FeedPageSize, pageOffset(page))
	if err != nil {
		return nil, err
	}
	return buildFeedPage(posts, page, count), nil
}

func pageOffset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * FeedPageSize
}

func buildFeedPage(posts []*models.Post, page int, count int64) *FeedPage {
	if page < 1 {
		page = 1
	}
	totalPages := int((count + FeedPageSize - 1) / FeedPageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	return &FeedPage{
		Posts:      posts,
		Page:       page,
		TotalPages: totalPages,
		TotalCount: count,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
