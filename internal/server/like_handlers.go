package server

import (
	"strconv"

	"contentflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /likes/ajax/like-toggle/
// @Summary Toggle a like
// @Description Flips the caller's like on a post. AJAX only: the X-Requested-With header must be XMLHttpRequest.
// @Tags likes
// @Accept x-www-form-urlencoded
// @Produce json
// @Param post_id formData int true "Post ID"
// @Success 200 {object} service.ToggleLikeResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /likes/ajax/like-toggle/ [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	if c.Get("X-Requested-With") != "XMLHttpRequest" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("AJAX request required"))
	}

	postID, err := strconv.ParseUint(c.FormValue("post_id"), 10, 32)
	if err != nil || postID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post_id"))
	}

	result, err := s.likeService.ToggleLike(c.UserContext(), currentUserID(c), uint(postID))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
