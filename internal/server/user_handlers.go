package server

import (
	"io"

	"contentflow/internal/models"
	"contentflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RedirectToOwnProfile handles GET /users/me/
func (s *Server) RedirectToOwnProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Redirect("/users/"+user.Username+"/", fiber.StatusFound)
}

// GetProfile handles GET /users/:username/
// @Summary User profile
// @Description A user's profile with one page of their posts
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Success 200 {object} object{user=models.User,posts=service.FeedPage}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/ [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}

	posts, err := s.postService.FeedByAuthor(c.UserContext(), currentUserID(c), user.ID, parsePage(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":  user,
		"posts": posts,
	})
}

// GetProfileForEdit handles GET /users/:username/edit/
// @Summary Fetch own profile for editing
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{username}/edit/ [get]
func (s *Server) GetProfileForEdit(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	if user.ID != currentUserID(c) {
		return respondError(c, models.NewForbiddenError("You can only edit your own profile"))
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// UpdateProfile handles POST /users/:username/edit/
// @Summary Edit own profile
// @Description Updates full name, bio and avatar. Owner only.
// @Tags users
// @Accept mpfd
// @Produce json
// @Param username path string true "Username"
// @Param full_name formData string false "Full name"
// @Param bio formData string false "Bio"
// @Param avatar formData file false "Avatar image"
// @Success 302
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{username}/edit/ [post]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	if user.ID != currentUserID(c) {
		return respondError(c, models.NewForbiddenError("You can only edit your own profile"))
	}

	avatarPath := ""
	if fh, err := c.FormFile("avatar"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			return respondError(c, models.NewInternalError(err))
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return respondError(c, models.NewInternalError(err))
		}
		avatarPath, err = s.imageService.SaveAvatar(fh.Filename, content)
		if err != nil {
			return respondError(c, err)
		}
	}

	if _, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   user.ID,
		FullName: c.FormValue("full_name"),
		Bio:      c.FormValue("bio"),
		Avatar:   avatarPath,
	}); err != nil {
		return respondError(c, err)
	}

	return c.Redirect("/users/"+user.Username+"/", fiber.StatusFound)
}
