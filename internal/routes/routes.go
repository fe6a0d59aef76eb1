package routes

import (
	"addons_backend/internal/auth"
	"addons_backend/internal/handlers"
	"addons_backend/internal/logger"
	"addons_backend/internal/metrics"
	"addons_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// APIPrefix is the versioned API root.
const APIPrefix = "/api/v5"

// RegisterRoutes registers the API, the web pages and the operational endpoints.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	tokens *auth.TokenService,
) {
	api := ginRouter.Group(APIPrefix)
	api.Use(middleware.BearerAuth(tokens))
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.RatingHandler.RegisterRoutes(api)
		appHandlers.ModerationHandler.RegisterRoutes(api)
		appHandlers.AdminHandler.RegisterRoutes(api)
		appHandlers.MetaHandler.RegisterRoutes(api)
	}
	logger.Info("API routes registered", "prefix", APIPrefix)

	appHandlers.PagesHandler.RegisterRoutes(ginRouter)

	ginRouter.GET("/metrics", gin.WrapH(metrics.Handler()))
	ginRouter.GET("/healthz", appHandlers.MetaHandler.Health)
}
