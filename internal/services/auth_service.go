package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-task-api/internal/constants"
	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/repository"
	"github.com/yukikurage/collab-task-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = apierrors.Duplicate("User with this email")
	ErrInvalidCredentials = apierrors.Unauthorized("Invalid credentials")
	ErrAccountDisabled    = apierrors.Unauthorized("Your account has been deactivated. Please contact an administrator.")
	ErrWrongPassword      = apierrors.Unauthorized("Current password is incorrect")
	ErrInvalidResetToken  = apierrors.Unauthorized("Invalid or expired token")
	ErrNothingToUpdate    = apierrors.Validation("Please provide at least one field to update")
	ErrPasswordTooShort   = apierrors.Validation("Password must be at least 6 characters", apierrors.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
)

// AuthService handles authentication related business logic.
type AuthService struct {
	users    *repository.UserRepository
	tokens   *TokenService
	log      *logrus.Logger
	resetTTL time.Duration
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *repository.UserRepository, tokens *TokenService, resetTTL time.Duration, log *logrus.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		log:      log,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// Session is the result of a successful authentication.
type Session struct {
	User  *models.User
	Token string
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// Register creates a new active user and signs them in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}

	now := s.now()
	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		LastLogin:    &now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return s.session(user)
}

// Login verifies credentials, records the login and returns a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now

	return s.session(user)
}

// Me loads the actor's profile with its project back-references.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetOne(ctx, userID, repository.QueryOptions{Preload: []string{"Projects"}})
}

// UpdateDetailsInput holds the profile fields a user may change on themself.
type UpdateDetailsInput struct {
	Name  *string
	Email *string
}

// UpdateDetails changes the actor's name and/or email.
func (s *AuthService) UpdateDetails(ctx context.Context, userID string, input UpdateDetailsInput) (*models.User, error) {
	if (input.Name == nil || *input.Name == "") && (input.Email == nil || *input.Email == "") {
		return nil, ErrNothingToUpdate
	}

	user, err := s.users.UpdateOne(ctx, userID, repository.UpdateOptions[models.User]{
		Transform: func(u *models.User) error {
			if input.Name != nil && *input.Name != "" {
				u.Name = *input.Name
			}
			if input.Email != nil && *input.Email != "" {
				u.Email = *input.Email
			}
			return nil
		},
	})
	if apierrors.IsKind(err, apierrors.KindDuplicate) {
		return nil, ErrEmailTaken
	}
	return user, err
}

// UpdatePassword checks the current password, stores the new one and
// returns a fresh token.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, current, next string) (*Session, error) {
	user, err := s.users.GetOne(ctx, userID, repository.QueryOptions{})
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return nil, ErrWrongPassword
	}

	hash, err := hashPassword(next)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	return s.session(user)
}

// ForgotPassword stores a reset token for the account with email, if any.
// The returned token is empty when no account matched; callers must
// respond identically either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	token, digest, err := utils.GenerateResetToken()
	if err != nil {
		return "", err
	}
	expire := s.now().Add(s.resetTTL)
	user.ResetPasswordToken = &digest
	user.ResetPasswordExpire = &expire

	if err := s.users.Save(ctx, user); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword sets a new password for the holder of an unexpired token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (*Session, error) {
	user, err := s.users.FindByResetToken(ctx, utils.HashToken(token), s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.ClearResetToken()

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("Password reset")
	return s.session(user)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

func hashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < constants.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
