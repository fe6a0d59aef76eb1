package services

import (
	"addons_backend/internal/auth"
	"addons_backend/internal/email"
	"addons_backend/internal/repositories"
	"addons_backend/internal/workers"
)

// ServiceContainer holds every application service.
type ServiceContainer struct {
	AuthService   AuthService
	RatingService RatingService
	SiteService   SiteService
	EmailService  email.Provider
	Tokens        *auth.TokenService
}

// Repositories groups the repositories shared by services and background tasks.
type Repositories struct {
	Users          repositories.UserRepository
	Addons         repositories.AddonRepository
	Ratings        repositories.RatingRepository
	Activity       repositories.ActivityRepository
	ReviewerScores repositories.ReviewerScoreRepository
	SiteConfig     repositories.SiteConfigRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Users:          repositories.NewUserRepository(),
		Addons:         repositories.NewAddonRepository(),
		Ratings:        repositories.NewRatingRepository(),
		Activity:       repositories.NewActivityRepository(),
		ReviewerScores: repositories.NewReviewerScoreRepository(),
		SiteConfig:     repositories.NewSiteConfigRepository(),
	}
}

// NewServiceContainer wires the services on top of repos.
func NewServiceContainer(repos *Repositories, queue workers.Queue, mailer email.Provider, tokens *auth.TokenService, cfg RatingServiceConfig) *ServiceContainer {
	return &ServiceContainer{
		AuthService: NewAuthService(repos.Users, tokens),
		RatingService: NewRatingService(
			repos.Ratings,
			repos.Addons,
			repos.Users,
			repos.Activity,
			repos.ReviewerScores,
			queue,
			mailer,
			cfg,
		),
		SiteService:  NewSiteService(repos.SiteConfig, repos.Users),
		EmailService: mailer,
		Tokens:       tokens,
	}
}
