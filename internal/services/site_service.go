package services

import (
	"context"
	"strings"

	"addons_backend/internal/auth"
	"addons_backend/internal/logger"
	"addons_backend/internal/models"
	"addons_backend/internal/repositories"
	"addons_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type SiteService interface {
	Notice(ctx context.Context, db *gorm.DB) (string, error)
	SetNotice(ctx context.Context, db *gorm.DB, actorID uint, notice string) error
}

type siteService struct {
	configRepo repositories.SiteConfigRepository
	userRepo   repositories.UserRepository
}

func NewSiteService(configRepo repositories.SiteConfigRepository, userRepo repositories.UserRepository) SiteService {
	return &siteService{configRepo: configRepo, userRepo: userRepo}
}

func (s *siteService) Notice(ctx context.Context, db *gorm.DB) (string, error) {
	notice, err := s.configRepo.Get(db, models.SiteConfigNotice)
	if err != nil {
		return "", apperrors.InternalError(err)
	}
	return notice, nil
}

func (s *siteService) SetNotice(ctx context.Context, db *gorm.DB, actorID uint, notice string) error {
	actor, err := s.userRepo.FindByID(db, actorID)
	if err != nil {
		return apperrors.ErrInsufficientPermissions
	}
	if !auth.HasPermission(actor.Role, auth.PermSiteNotice) {
		return apperrors.ErrInsufficientPermissions
	}
	if err := s.configRepo.Set(db, models.SiteConfigNotice, strings.TrimSpace(notice)); err != nil {
		return apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "Site notice updated", "user_id", actor.ID)
	return nil
}
