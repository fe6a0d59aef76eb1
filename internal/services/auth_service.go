package services

import (
	"context"
	"errors"
	"strings"

	"addons_backend/internal/auth"
	"addons_backend/internal/logger"
	"addons_backend/internal/models"
	"addons_backend/internal/repositories"
	"addons_backend/internal/services/dto"
	"addons_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
	CurrentUser(ctx context.Context, db *gorm.DB, userID uint) (*models.User, error)
	Register(ctx context.Context, db *gorm.DB, email, username, password string, role models.UserRole) (*models.User, error)
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
	tokens   *auth.TokenService
}

func NewAuthService(userRepo repositories.UserRepository, tokens *auth.TokenService) AuthService {
	return &AuthServiceImpl{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Login checks the credentials and issues a token usable as bearer or session cookie.
func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(db, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "Failed login attempt", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Sign(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "User authenticated", "user_id", user.ID)
	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
	}, nil
}

func (s *AuthServiceImpl) CurrentUser(ctx context.Context, db *gorm.DB, userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

// Register creates an account. Used for seeding and by admin tooling.
func (s *AuthServiceImpl) Register(ctx context.Context, db *gorm.DB, email, username, password string, role models.UserRole) (*models.User, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return nil, apperrors.ValidationError(map[string]string{"password": err.Error()})
	}
	if !auth.ValidateRole(string(role)) {
		return nil, apperrors.ValidationError(map[string]string{"role": "Invalid role"})
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	user := &models.User{
		Email:           strings.ToLower(strings.TrimSpace(email)),
		Username:        username,
		PasswordHash:    hash,
		Role:            role,
		NotifyReply:     true,
		NotifyNewReview: true,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrAlreadyExists(err)
		}
		return nil, apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}
