package service

import (
	"context"
	"testing"

	"contentflow/internal/models"
	"contentflow/internal/repository"
	"contentflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestExtractTagNames(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		caption string
		want    []string
	}{
		{
			"Mixed Case With Repeat",
			"Learning #Python #Django #WebDev is fun! #PYTHON",
			[]string{"python", "django", "webdev", "python"},
		},
		{"No Hashtags", "just a plain caption", nil},
		{"Empty", "", nil},
		{"Punctuation Boundary", "ship it #golang, then rest", []string{"golang"}},
		{"Underscore And Digits", "#web_dev2 rocks", []string{"web_dev2"}},
		{"Cyrillic", "привет #спорт", []string{"спорт"}},
		{"Bare Hash", "just a # sign", nil},
		{"Adjacent Hashtags", "#one#two", []string{"one", "two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTagNames(tt.caption))
		})
	}
}

func setupTagServiceTest(t *testing.T) (*gorm.DB, *TagService) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	return db, NewTagService(repository.NewTagRepository(db))
}

func TestSyncPostTags(t *testing.T) {
	t.Parallel()
	db, svc := setupTagServiceTest(t)
	ctx := context.Background()

	user := models.User{Username: "author", Email: "author@example.com", Password: "pw", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	post := models.Post{AuthorID: user.ID, Caption: "Learning #Python #Django is fun! #PYTHON"}
	require.NoError(t, db.Create(&post).Error)

	require.NoError(t, svc.SyncPostTags(ctx, &post))

	var tags []models.Tag
	require.NoError(t, db.Model(&post).Association("Tags").Find(&tags))
	names := tagNames(tags)
	assert.ElementsMatch(t, []string{"python", "django"}, names)

	// Editing the caption replaces the whole set.
	post.Caption = "Now about #Travel only"
	require.NoError(t, db.Save(&post).Error)
	require.NoError(t, svc.SyncPostTags(ctx, &post))

	tags = nil
	require.NoError(t, db.Model(&post).Association("Tags").Find(&tags))
	assert.Equal(t, []string{"travel"}, tagNames(tags))

	// The dropped tags still exist as rows; only the link is gone.
	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestSyncPostTagsClearsWhenNoHashtags(t *testing.T) {
	t.Parallel()
	db, svc := setupTagServiceTest(t)
	ctx := context.Background()

	user := models.User{Username: "author2", Email: "author2@example.com", Password: "pw", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	post := models.Post{AuthorID: user.ID, Caption: "start with #something"}
	require.NoError(t, db.Create(&post).Error)
	require.NoError(t, svc.SyncPostTags(ctx, &post))

	post.Caption = "no hashtags anymore"
	require.NoError(t, db.Save(&post).Error)
	require.NoError(t, svc.SyncPostTags(ctx, &post))

	count := db.Model(&post).Association("Tags").Count()
	assert.Zero(t, count)
}

func TestSyncPostTagsReusesExistingTag(t *testing.T) {
	t.Parallel()
	db, svc := setupTagServiceTest(t)
	ctx := context.Background()

	user := models.User{Username: "author3", Email: "author3@example.com", Password: "pw", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	first := models.Post{AuthorID: user.ID, Caption: "#Fitness day"}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, svc.SyncPostTags(ctx, &first))

	second := models.Post{AuthorID: user.ID, Caption: "more #FITNESS content"}
	require.NoError(t, db.Create(&second).Error)
	require.NoError(t, svc.SyncPostTags(ctx, &second))

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "fitness").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}
