package server

import (
	"time"

	"contentflow/internal/middleware"
	"contentflow/internal/models"
	"contentflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

// setSessionCookie attaches the session token as an HTTP-only cookie for
// browser flows.
func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(middleware.SessionLifetime),
		HTTPOnly: true,
		SameSite: "Lax",
		Secure:   s.config.Env == "production",
		Path:     "/",
	})
}

// Register handles POST /users/register/
// @Summary Register a new account
// @Description Creates an inactive account and emails an activation link
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Registration request"
// @Success 201 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/register/ [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created. Check your email for the activation link.",
		"user":    user,
	})
}

// Activate handles GET /users/activate/:uid/:token/
// @Summary Activate an account
// @Description Consumes a single-use activation link and signs the user in
// @Tags users
// @Produce json
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Router /users/activate/{uid}/{token}/ [get]
func (s *Server) Activate(c *fiber.Ctx) error {
	user, needsProfile, err := s.userService.Activate(c.UserContext(), c.Params("uid"), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}

	token, err := middleware.NewSessionToken(user.ID)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	s.setSessionCookie(c, token)

	if needsProfile {
		return c.Redirect("/users/"+user.Username+"/edit/", fiber.StatusFound)
	}
	return c.Redirect("/users/"+user.Username+"/", fiber.StatusFound)
}

// LoginPage handles GET /users/login/, the target of unauthenticated
// redirects.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Authentication required. POST your credentials to this URL.",
	})
}

// Login handles POST /users/login/
// @Summary Log in
// @Description Verifies credentials and issues a session cookie
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login request"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, err := middleware.NewSessionToken(user.ID)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	s.setSessionCookie(c, token)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /users/logout/
// @Summary Log out
// @Description Clears the session cookie
// @Tags users
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /users/logout/ [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged out",
	})
}
