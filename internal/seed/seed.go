// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"regexp"
	"strings"
	"time"

	"contentflow/internal/models"
	"contentflow/internal/repository"
	"contentflow/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedPassword is the shared password for every generated account.
const SeedPassword = "password1234"

// fakeEmailPattern identifies accounts created by the seeder.
var fakeEmailPattern = regexp.MustCompile(`^user\d+@example\.com$`)

// tagPool is the fixed hashtag vocabulary for generated captions.
var tagPool = []string{"fitness", "django", "ai", "crypto", "python", "travel"}

// Summary reports what a seed or clear run touched.
type Summary struct {
	Users  int
	Posts  int
	Images int
	Tags   int
}

type Seeder struct {
	db           *gorm.DB
	tagRepo      repository.TagRepository
	tagService   *service.TagService
	imageService *service.ImageService
}

func NewSeeder(db *gorm.DB, mediaRoot string) *Seeder {
	tagRepo := repository.NewTagRepository(db)
	return &Seeder{
		db:           db,
		tagRepo:      tagRepo,
		tagService:   service.NewTagService(tagRepo),
		imageService: service.NewImageService(repository.NewImageRepository(db), mediaRoot),
	}
}

// Run creates count fake users, each active with 2-5 posts carrying 1-3
// hashtags from the fixed pool and 1-3 generated images.
func (s *Seeder) Run(ctx context.Context, count int) (*Summary, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for i := 1; i <= count; i++ {
		user := &models.User{
			Username: fmt.Sprintf("user%d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: string(hash),
			FullName: gofakeit.Name(),
			Bio:      gofakeit.Sentence(8),
			IsActive: true,
		}
		if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		summary.Users++

		numPosts := gofakeit.Number(2, 5)
		for p := 0; p < numPosts; p++ {
			post, err := s.createPost(ctx, user)
			if err != nil {
				return nil, fmt.Errorf("create post for user %d: %w", i, err)
			}
			summary.Posts++
			summary.Images += len(post.Images)
		}
	}

	return summary, nil
}

func (s *Seeder) createPost(ctx context.Context, user *models.User) (*models.Post, error) {
	numTags := gofakeit.Number(1, 3)
	idx := poolIndexes()
	gofakeit.ShuffleInts(idx)
	hashtags := make([]string, 0, numTags)
	for _, i := range idx[:numTags] {
		hashtags = append(hashtags, "#"+tagPool[i])
	}

	post := &models.Post{
		AuthorID: user.ID,
		Caption:  gofakeit.Sentence(gofakeit.Number(5, 15)) + " " + strings.Join(hashtags, " "),
		// Spread creation times so the feed has a meaningful order.
		CreatedAt: time.Now().Add(-time.Duration(gofakeit.Number(1, 60*24*30)) * time.Minute),
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	if err := s.tagService.SyncPostTags(ctx, post); err != nil {
		return nil, err
	}

	numImages := gofakeit.Number(1, 3)
	for n := 0; n < numImages; n++ {
		content, err := generateJPEG(640, 480)
		if err != nil {
			return nil, err
		}
		img, err := s.imageService.Attach(ctx, post, fmt.Sprintf("seed_%d_%d.jpg", post.ID, n), content)
		if err != nil {
			return nil, err
		}
		post.Images = append(post.Images, *img)
	}

	return post, nil
}

// Clear removes every seeder-created account with its posts, likes and
// image files, then prunes tags left without any post.
func (s *Seeder) Clear(ctx context.Context) (*Summary, error) {
	var candidates []models.User
	err := s.db.WithContext(ctx).
		Where("email LIKE ?", "user%@example.com").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, user := range candidates {
		if !fakeEmailPattern.MatchString(user.Email) {
			continue
		}

		var posts []models.Post
		if err := s.db.WithContext(ctx).
			Preload("Images").
			Where("author_id = ?", user.ID).
			Find(&posts).Error; err != nil {
			return nil, err
		}

		for i := range posts {
			summary.Posts++
			for j := range posts[i].Images {
				s.imageService.RemoveFiles(&posts[i].Images[j])
				summary.Images++
			}
			if err := s.db.WithContext(ctx).
				Select("Tags").
				Delete(&models.Post{ID: posts[i].ID}).Error; err != nil {
				return nil, err
			}
		}

		if err := s.db.WithContext(ctx).Delete(&models.User{}, user.ID).Error; err != nil {
			return nil, err
		}
		summary.Users++
	}

	orphans, err := s.tagRepo.Unreferenced(ctx)
	if err != nil {
		return nil, err
	}
	for _, tag := range orphans {
		if err := s.tagRepo.Delete(ctx, tag.ID); err != nil {
			return nil, err
		}
		summary.Tags++
	}

	return summary, nil
}

func poolIndexes() []int {
	idx := make([]int, len(tagPool))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// generateJPEG renders a solid-color placeholder image.
func generateJPEG(width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := color.RGBA{
		R: uint8(gofakeit.Number(0, 255)),
		G: uint8(gofakeit.Number(0, 255)),
		B: uint8(gofakeit.Number(0, 255)),
		A: 255,
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
