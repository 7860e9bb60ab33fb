package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"contentflow/internal/config"
	"contentflow/internal/middleware"
	"contentflow/internal/models"
	"contentflow/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "server-test-secret-key-0123456789abcdef"

func newTestServer(t *testing.T) (*fiber.App, *Server, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	cfg := &config.Config{
		SecretKey: testSecret,
		MediaRoot: t.TempDir(),
		BaseURL:   "http://localhost:8294",
		Env:       "test",
	}

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return app, srv, db
}

// createActiveUser inserts an activated account directly.
func createActiveUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1234"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPost(t *testing.T, db *gorm.DB, authorID uint, caption string, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{AuthorID: authorID, Caption: caption, CreatedAt: createdAt}
	require.NoError(t, db.Create(post).Error)
	return post
}

// withSession attaches a valid session cookie for the given user.
func withSession(t *testing.T, req *http.Request, userID uint) {
	t.Helper()
	token, err := middleware.NewSessionToken(userID)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, dest), "body: %s", body)
}

func TestHealthLive(t *testing.T) {
	t.Parallel()
	app, _, _ := newTestServer(t)

	resp, err := app.Test(httpGet("/health/live"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func httpGet(path string) *http.Request {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	return req
}

func TestFeedPagination(t *testing.T) {
	t.Parallel()
	app, _, db := newTestServer(t)

	author := createActiveUser(t, db, "feeduser")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		createPost(t, db, author.ID, fmt.Sprintf("caption %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	resp, err := app.Test(httpGet("/posts/"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page struct {
		Posts      []models.Post `json:"posts"`
		Page       int           `json:"page"`
		TotalPages int           `json:"total_pages"`
		TotalCount int64         `json:"total_count"`
		HasNext    bool          `json:"has_next"`
		HasPrev    bool          `json:"has_prev"`
	}
	decodeBody(t, resp, &page)
	require.Len(t, page.Posts, 5)
	require.Equal(t, "caption 6", page.Posts[0].Caption)
	require.Equal(t, 2, page.TotalPages)
	require.Equal(t, int64(7), page.TotalCount)
	require.True(t, page.HasNext)
	require.False(t, page.HasPrev)

	resp, err = app.Test(httpGet("/posts/?page=2"))
	require.NoError(t, err)
	decodeBody(t, resp, &page)
	require.Len(t, page.Posts, 2)
	require.Equal(t, "caption 0", page.Posts[1].Caption)
	require.False(t, page.HasNext)
	require.True(t, page.HasPrev)
}

func TestFeedByTagRoute(t *testing.T) {
	t.Parallel()
	app, srv, db := newTestServer(t)

	author := createActiveUser(t, db, "taggedfeed")
	post := createPost(t, db, author.ID, "about #Golang", time.Now())
	require.NoError(t, srv.tagService.SyncPostTags(t.Context(), post))
	createPost(t, db, author.ID, "untagged", time.Now())

	resp, err := app.Test(httpGet("/posts/tag/GOLANG/"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page struct {
		Posts []models.Post `json:"posts"`
	}
	decodeBody(t, resp, &page)
	require.Len(t, page.Posts, 1)
	require.Equal(t, "about #Golang", page.Posts[0].Caption)
}

func TestProfileRoute(t *testing.T) {
	t.Parallel()
	app, _, db := newTestServer(t)

	user := createActiveUser(t, db, "profiled")
	createPost(t, db, user.ID, "mine", time.Now())

	resp, err := app.Test(httpGet("/users/profiled/"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		User  models.User `json:"user"`
		Posts struct {
			Posts []models.Post `json:"posts"`
		} `json:"posts"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, "profiled", body.User.Username)
	require.Len(t, body.Posts.Posts, 1)

	resp, err = app.Test(httpGet("/users/nobodyhere/"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProfileEditIsOwnerOnly(t *testing.T) {
	t.Parallel()
	app, _, db := newTestServer(t)

	owner := createActiveUser(t, db, "profowner")
	intruder := createActiveUser(t, db, "profintruder")

	req := httpGet("/users/profowner/edit/")
	withSession(t, req, intruder.ID)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httpGet("/users/profowner/edit/")
	withSession(t, req, owner.ID)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	t.Parallel()
	app, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, "/likes/ajax/like-toggle/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, middleware.LoginPath, resp.Header.Get("Location"))

	req = httpGet("/users/me/")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestMeRedirectsToOwnProfile(t *testing.T) {
	t.Parallel()
	app, _, db := newTestServer(t)

	user := createActiveUser(t, db, "redirectme")
	req := httpGet("/users/me/")
	withSession(t, req, user.ID)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/users/redirectme/", resp.Header.Get("Location"))
}
