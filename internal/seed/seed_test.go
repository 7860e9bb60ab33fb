package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"contentflow/internal/models"
	"contentflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newSeeder(t *testing.T) (*gorm.DB, *Seeder, string) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	mediaRoot := t.TempDir()
	return db, NewSeeder(db, mediaRoot), mediaRoot
}

func TestRunCreatesUsersWithPosts(t *testing.T) {
	t.Parallel()
	db, seeder, mediaRoot := newSeeder(t)

	summary, err := seeder.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Users)
	assert.GreaterOrEqual(t, summary.Posts, 4)
	assert.LessOrEqual(t, summary.Posts, 10)
	assert.GreaterOrEqual(t, summary.Images, summary.Posts)

	var users []models.User
	require.NoError(t, db.Order("id").Find(&users).Error)
	require.Len(t, users, 2)
	assert.Equal(t, "user1", users[0].Username)
	assert.Equal(t, "user2@example.com", users[1].Email)

	for _, user := range users {
		assert.True(t, user.IsActive)
		assert.NotEmpty(t, user.FullName)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(SeedPassword)))

		var count int64
		require.NoError(t, db.Model(&models.Post{}).Where("author_id = ?", user.ID).Count(&count).Error)
		assert.GreaterOrEqual(t, count, int64(2))
		assert.LessOrEqual(t, count, int64(5))
	}

	// Every generated tag comes from the fixed pool.
	pool := map[string]bool{}
	for _, name := range tagPool {
		pool[name] = true
	}
	var tags []models.Tag
	require.NoError(t, db.Find(&tags).Error)
	require.NotEmpty(t, tags)
	for _, tag := range tags {
		assert.True(t, pool[tag.Name], "unexpected tag %q", tag.Name)
	}

	// Images and thumbnails were written under the media root.
	var images []models.Image
	require.NoError(t, db.Find(&images).Error)
	require.Len(t, images, summary.Images)
	for _, img := range images {
		_, err := os.Stat(filepath.Join(mediaRoot, img.ImagePath))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(mediaRoot, img.ThumbnailPath))
		assert.NoError(t, err)
	}
}

func TestClearRemovesOnlySeededAccounts(t *testing.T) {
	t.Parallel()
	db, seeder, mediaRoot := newSeeder(t)

	summary, err := seeder.Run(context.Background(), 2)
	require.NoError(t, err)

	// A real account that only looks similar must survive.
	survivor := &models.User{
		Username: "userx",
		Email:    "userx@example.com",
		Password: "hash",
		IsActive: true,
	}
	require.NoError(t, db.Create(survivor).Error)
	keptPost := &models.Post{AuthorID: survivor.ID, Caption: "staying put"}
	require.NoError(t, db.Create(keptPost).Error)

	var img models.Image
	require.NoError(t, db.First(&img).Error)
	seededFile := filepath.Join(mediaRoot, img.ImagePath)

	cleared, err := seeder.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary.Users, cleared.Users)
	assert.Equal(t, summary.Posts, cleared.Posts)
	assert.Equal(t, summary.Images, cleared.Images)

	var users, posts, tags int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Tag{}).Count(&tags).Error)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(1), posts)
	// Seeded posts were the only tagged ones, so their tags are pruned.
	assert.Equal(t, int64(0), tags)

	_, statErr := os.Stat(seededFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestClearOnEmptyDatabase(t *testing.T) {
	t.Parallel()
	_, seeder, _ := newSeeder(t)

	summary, err := seeder.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Users)
	assert.Equal(t, 0, summary.Posts)
}
