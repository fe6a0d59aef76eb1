package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"addons_backend/internal/auth"
	"addons_backend/internal/config"
	"addons_backend/internal/database"
	"addons_backend/internal/email"
	"addons_backend/internal/handlers"
	"addons_backend/internal/i18n"
	"addons_backend/internal/logger"
	"addons_backend/internal/middleware"
	"addons_backend/internal/models"
	"addons_backend/internal/repositories"
	"addons_backend/internal/routes"
	"addons_backend/internal/services"
	"addons_backend/internal/validator"
	"addons_backend/internal/workers"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	if errs := database.CheckModels(gormDB, models.All()...); errs.Len() > 0 {
		logger.Fatal("Model checks failed", "errors", errs.Messages())
	}
	logger.Info("Database connected")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos := services.NewRepositories()

	queue, err := initializeQueue(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize task queue", "error", err)
	}
	workers.NewRatingTasks(gormDB, repos.Ratings, repos.Addons, nil).Register(queue)
	queue.Start(ctx)
	defer queue.Stop()

	scheduler := workers.NewScheduler(gormDB, queue, repos.Ratings)
	if err := scheduler.Start(ctx, cfg.Scheduler.AggregatesSpec); err != nil {
		logger.Fatal("Failed to start scheduler", "error", err)
	}
	defer scheduler.Stop()

	mailer, err := initializeMailer(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize email provider", "error", err)
	}
	defer mailer.Close()

	serviceContainer := initializeServices(cfg, repos, queue, mailer)

	if err := seedFirstAdmin(ctx, gormDB, cfg, repos.Users, serviceContainer.AuthService); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	limiter.StartCleanup(time.Minute, ctx.Done())

	ginRouter := SetupRouter(cfg, gormDB, serviceContainer, limiter)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}

// SetupRouter builds the gin engine with every middleware and route.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, serviceContainer *services.ServiceContainer, limiter *middleware.RateLimiter) *gin.Engine {
	languages := i18n.NewLanguages(cfg.I18n.Languages, cfg.I18n.DefaultLanguage)

	appHandlers := initializeHandlers(cfg, serviceContainer, limiter)

	ginRouter := initializeGinRouter(cfg, gormDB, languages, serviceContainer)

	routes.RegisterRoutes(ginRouter, appHandlers, serviceContainer.Tokens)

	return ginRouter
}

func initializeQueue(ctx context.Context, cfg *config.Config) (workers.Queue, error) {
	switch cfg.Queue.Backend {
	case "redis":
		client, err := workers.NewRedisClient(ctx, cfg.Queue.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info("Task queue initialized", "backend", "redis", "key", cfg.Queue.Key)
		return workers.NewRedisQueue(client, cfg.Queue.Key, cfg.Queue.Workers), nil
	case "memory", "":
		logger.Info("Task queue initialized", "backend", "memory", "workers", cfg.Queue.Workers)
		return workers.NewMemoryQueue(cfg.Queue.Workers, cfg.Queue.Buffer), nil
	default:
		return nil, fmt.Errorf("unsupported queue backend %q", cfg.Queue.Backend)
	}
}

func initializeMailer(cfg *config.Config) (email.Provider, error) {
	templates, err := email.NewDefaultTemplateManager()
	if err != nil {
		return nil, err
	}
	if cfg.Email.Disabled {
		logger.Warn("Email sending disabled, messages are only recorded")
		return email.NewRecordingProvider(templates), nil
	}
	provider := email.NewSMTPProvider(email.ConfigFrom(cfg), templates)
	if err := provider.Validate(); err != nil {
		return nil, err
	}
	return provider, nil
}

func initializeServices(cfg *config.Config, repos *services.Repositories, queue workers.Queue, mailer email.Provider) *services.ServiceContainer {
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.TokenTTL())

	return services.NewServiceContainer(repos, queue, mailer, tokens, services.RatingServiceConfig{
		SiteURL:       cfg.Server.SiteURL,
		DefaultLocale: cfg.I18n.DefaultLanguage,
	})
}

func initializeHandlers(cfg *config.Config, services *services.ServiceContainer, limiter *middleware.RateLimiter) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)
	secureCookie := strings.HasPrefix(cfg.Server.SiteURL, "https://")

	return &handlers.AppHandlers{
		AuthHandler:       handlers.NewAuthHandler(baseHandler, services.AuthService, secureCookie),
		RatingHandler:     handlers.NewRatingHandler(baseHandler, services.RatingService, limiter),
		ModerationHandler: handlers.NewModerationHandler(baseHandler, services.RatingService),
		AdminHandler:      handlers.NewAdminHandler(baseHandler, services.RatingService, services.SiteService),
		MetaHandler:       handlers.NewMetaHandler(baseHandler, cfg.I18n.Languages),
		PagesHandler:      handlers.NewPagesHandler(baseHandler, services.RatingService, cfg.I18n.DefaultLanguage),
	}
}

// initializeGinRouter installs the global middleware. Redirecting middleware
// runs before gzip so redirects carry no Accept-Encoding in Vary.
func initializeGinRouter(cfg *config.Config, db *gorm.DB, languages *i18n.Languages, services *services.ServiceContainer) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.APIDetection())
	router.Use(middleware.LocaleAndAppURL(languages, cfg.Server.Debug))
	router.Use(middleware.RemoveSlash())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	router.Use(middleware.VaryAcceptEncoding())
	router.Use(middleware.DBMiddleware(db))
	router.Use(middleware.AuthenticationWithoutAPI(middleware.SessionAuth(services.Tokens)))
	router.Use(middleware.SiteNotice(services.SiteService))
	return router
}

// seedFirstAdmin creates the admin account from config once.
func seedFirstAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config, userRepo repositories.UserRepository, authService services.AuthService) error {
	adminEmail := strings.ToLower(strings.TrimSpace(cfg.FirstAdminEmail))
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	_, err := userRepo.FindByEmail(db, adminEmail)
	if err == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	username := adminEmail
	if at := strings.Index(adminEmail, "@"); at > 0 {
		username = adminEmail[:at]
	}
	if _, err := authService.Register(ctx, db, adminEmail, username, adminPassword, models.UserRoleAdmin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Created first admin user", "email", adminEmail)
	return nil
}
