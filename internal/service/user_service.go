package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"contentflow/internal/config"
	"contentflow/internal/middleware"
	"contentflow/internal/models"
	"contentflow/internal/repository"
	"contentflow/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ActivationLifetime bounds how long an activation link stays usable.
const ActivationLifetime = 72 * time.Hour

// ErrActivationInvalid is the single response for every activation failure.
// Bad uid, bad signature, expired token, unknown user and already-active all
// collapse into it so the link leaks nothing about which case occurred.
var ErrActivationInvalid = models.NewValidationError("Activation link is invalid or has expired")

type UserService struct {
	userRepo repository.UserRepository
	mailer   *Mailer
	cfg      *config.Config
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type UpdateProfileInput struct {
	UserID   uint
	FullName string
	Bio      string
	Avatar   string
}

func NewUserService(userRepo repository.UserRepository, mailer *Mailer, cfg *config.Config) *UserService {
	return &UserService{userRepo: userRepo, mailer: mailer, cfg: cfg}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// Register creates an inactive account and emails its activation link. The
// account cannot log in until the link is followed.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewValidationError("Email already registered")
	}
	if existing, err := s.userRepo.GetByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewValidationError("Username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		IsActive: false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	link, err := s.ActivationLink(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	body := fmt.Sprintf("Welcome to ContentFlow, %s!\n\nActivate your account:\n%s\n\nThe link expires in 72 hours.", user.Username, link)
	if err := s.mailer.Send(user.Email, "Activate your ContentFlow account", body); err != nil {
		middleware.Logger.Error("failed to send activation email", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// ActivationLink builds the single-use activation URL for an inactive user.
func (s *UserService) ActivationLink(user *models.User) (string, error) {
	token, err := s.activationToken(user)
	if err != nil {
		return "", err
	}
	uid := base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(user.ID), 10)))
	return fmt.Sprintf("%s/users/activate/%s/%s/", s.cfg.BaseURL, uid, token), nil
}

// activationKey derives the signing key from server secret, password hash
// and the active flag. Activating the account (or changing the password)
// changes the key, so every issued token is single-use.
func (s *UserService) activationKey(user *models.User) []byte {
	return []byte(s.cfg.SecretKey + user.Password + strconv.FormatBool(user.IsActive))
}

func (s *UserService) activationToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ActivationLifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.activationKey(user))
}

func (s *UserService) checkActivationToken(user *models.User, tokenString string) bool {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.activationKey(user), nil
	})
	if err != nil || !token.Valid {
		return false
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return false
	}
	return sub == strconv.FormatUint(uint64(user.ID), 10)
}

// Activate consumes an activation link. On success the account is marked
// active and the user is returned along with whether their profile still
// needs completing. Every failure returns ErrActivationInvalid.
func (s *UserService) Activate(ctx context.Context, uid, token string) (*models.User, bool, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return nil, false, ErrActivationInvalid
	}
	id, err := strconv.ParseUint(string(decoded), 10, 32)
	if err != nil {
		return nil, false, ErrActivationInvalid
	}

	user, err := s.userRepo.GetByID(ctx, uint(id))
	if err != nil || user == nil {
		return nil, false, ErrActivationInvalid
	}

	// An already-active account derives a different key, so its old token
	// fails verification the same way a forged one does.
	if !s.checkActivationToken(user, token) {
		return nil, false, ErrActivationInvalid
	}
	if user.IsActive {
		return nil, false, ErrActivationInvalid
	}

	user.IsActive = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, false, ErrActivationInvalid
	}

	return user, !user.HasCompleteProfile(), nil
}

// Login verifies credentials for an active account. Inactive accounts fail
// identically to wrong passwords.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	return user, nil
}

// UpdateProfile applies partial profile edits for the owning user.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxFullNameLen = 100
	const maxBioLen = 500

	if len(in.FullName) > maxFullNameLen {
		return nil, models.NewValidationError("Full name too long (max 100 characters)")
	}
	if len(in.Bio) > maxBioLen {
		return nil, models.NewValidationError("Bio too long (max 500 characters)")
	}

	user.FullName = in.FullName
	user.Bio = in.Bio
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
