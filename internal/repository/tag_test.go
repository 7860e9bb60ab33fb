package repository

import (
	"context"
	"testing"

	"contentflow/internal/models"
	"contentflow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagNameNormalizedOnSave(t *testing.T) {
	t.Parallel()
	db := testutil.OpenTestDB(t)

	tag := models.Tag{Name: "  PyThOn "}
	require.NoError(t, db.Create(&tag).Error)
	assert.Equal(t, "python", tag.Name)

	var stored models.Tag
	require.NoError(t, db.First(&stored, tag.ID).Error)
	assert.Equal(t, "python", stored.Name)
}

func TestTagUniquenessIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	db := testutil.OpenTestDB(t)

	require.NoError(t, db.Create(&models.Tag{Name: "Django"}).Error)
	err := db.Create(&models.Tag{Name: "django"}).Error
	require.Error(t, err)
	assert.True(t, isUniqueConstraintError(err))
}

func TestGetOrCreate(t *testing.T) {
	t.Parallel()
	db := testutil.OpenTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	created, err := repo.GetOrCreate(ctx, "Travel")
	require.NoError(t, err)
	assert.Equal(t, "travel", created.Name)

	// Same name in any casing resolves to the same row.
	again, err := repo.GetOrCreate(ctx, "TRAVEL")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetByNameMissingReturnsNil(t *testing.T) {
	t.Parallel()
	db := testutil.OpenTestDB(t)
	repo := NewTagRepository(db)

	tag, err := repo.GetByName(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, tag)
}

func TestUnreferencedTags(t *testing.T) {
	t.Parallel()
	db := testutil.OpenTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	user := models.User{Username: "tagger", Email: "tagger@example.com", Password: "pw", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	post := models.Post{AuthorID: user.ID, Caption: "tagged"}
	require.NoError(t, db.Create(&post).Error)

	linked := models.Tag{Name: "linked"}
	orphan := models.Tag{Name: "orphan"}
	require.NoError(t, db.Create(&linked).Error)
	require.NoError(t, db.Create(&orphan).Error)
	require.NoError(t, db.Model(&post).Association("Tags").Append(&linked))

	orphans, err := repo.Unreferenced(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "orphan", orphans[0].Name)

	require.NoError(t, repo.Delete(ctx, orphans[0].ID))
	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReplaceForPostDeduplicates(t *testing.T) {
	t.Parallel()
	db := testutil.OpenTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	user := models.User{Username: "dedupe", Email: "dedupe@example.com", Password: "pw", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	post := models.Post{AuthorID: user.ID, Caption: "c"}
	require.NoError(t, db.Create(&post).Error)

	require.NoError(t, repo.ReplaceForPost(ctx, &post, []string{"python", "Python", "PYTHON", "django", ""}))

	count := db.Model(&post).Association("Tags").Count()
	assert.Equal(t, int64(2), count)
}
