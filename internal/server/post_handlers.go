package server

import (
	"io"
	"strconv"

	"contentflow/internal/models"
	"contentflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

// collectUploads reads the multipart "images" files into memory, bounded by
// the per-post image limit.
func collectUploads(c *fiber.Ctx) ([]service.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Not a multipart request; a caption-only post is fine.
		return nil, nil
	}

	files := form.File["images"]
	if len(files) > service.MaxImagesPerPost {
		return nil, models.NewValidationError("A post can have at most 5 images")
	}

	uploads := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Content: content})
	}
	return uploads, nil
}

// collectDeleteIDs reads the repeated "delete_images" form values naming
// image IDs to remove during an edit.
func collectDeleteIDs(c *fiber.Ctx) ([]uint, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}

	values := form.Value["delete_images"]
	ids := make([]uint, 0, len(values))
	for _, raw := range values {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return nil, models.NewValidationError("Invalid delete_images value")
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// GetFeed handles GET /posts/
// @Summary Feed
// @Description One page of the reverse-chronological feed, 5 posts per page
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} service.FeedPage
// @Router /posts/ [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, err := s.postService.Feed(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

// GetFeedByTag handles GET /posts/tag/:name/
// @Summary Tag feed
// @Description Feed filtered to posts carrying the given hashtag
// @Tags posts
// @Produce json
// @Param name path string true "Tag name"
// @Param page query int false "Page number"
// @Success 200 {object} service.FeedPage
// @Router /posts/tag/{name}/ [get]
func (s *Server) GetFeedByTag(c *fiber.Ctx) error {
	page, err := s.postService.FeedByTag(c.UserContext(), currentUserID(c), c.Params("name"), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

// CreatePost handles POST /posts/create/
// @Summary Create a post
// @Description Creates a post from a caption and up to 5 images; hashtags in the caption become tags
// @Tags posts
// @Accept mpfd
// @Produce json
// @Param caption formData string true "Caption"
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/create/ [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	uploads, err := collectUploads(c)
	if err != nil {
		return respondError(c, err)
	}

	if _, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: currentUserID(c),
		Caption:  c.FormValue("caption"),
		Uploads:  uploads,
	}); err != nil {
		return respondError(c, err)
	}

	return c.Redirect("/posts/", fiber.StatusFound)
}

// GetPostForEdit handles GET /posts/:id/edit/
// @Summary Fetch a post for editing
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/edit/ [get]
func (s *Server) GetPostForEdit(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := currentUserID(c)
	post, err := s.postService.GetPost(c.UserContext(), postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	if post.AuthorID != userID {
		return respondError(c, models.NewForbiddenError("Only the author can edit this post"))
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// UpdatePost handles POST /posts/:id/edit/
// @Summary Edit a post
// @Description Updates the caption, re-deriving tags from its hashtags; removes images listed in delete_images
// @Tags posts
// @Accept mpfd
// @Produce json
// @Param id path int true "Post ID"
// @Param caption formData string true "Caption"
// @Param delete_images formData []int false "Image IDs to remove"
// @Success 302
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/edit/ [post]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	uploads, err := collectUploads(c)
	if err != nil {
		return respondError(c, err)
	}
	deleteIDs, err := collectDeleteIDs(c)
	if err != nil {
		return respondError(c, err)
	}

	_, err = s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:       currentUserID(c),
		PostID:       postID,
		Caption:      c.FormValue("caption"),
		Uploads:      uploads,
		DeleteImages: deleteIDs,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Redirect("/posts/", fiber.StatusFound)
}

// DeletePost handles POST /posts/:id/delete/
// @Summary Delete a post
// @Description Removes the post with its images and likes; media files included
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 302
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/delete/ [post]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondError(c, err)
	}
	return c.Redirect("/posts/", fiber.StatusFound)
}
