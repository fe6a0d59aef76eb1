package handlers

import (
	"net/http"

	"addons_backend/internal/constants"
	"addons_backend/internal/i18n"
	"addons_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// MetaHandler serves the static lookup tables clients need.
type MetaHandler struct {
	*BaseHandler
	locales []i18n.Locale
}

func NewMetaHandler(base *BaseHandler, languages map[string]string) *MetaHandler {
	return &MetaHandler{
		BaseHandler: base,
		locales:     i18n.Locales(languages),
	}
}

func (h *MetaHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/licenses/", h.GetLicenses)
	r.GET("/locales/", h.GetLocales)
}

func (h *MetaHandler) GetLicenses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": constants.AllLicenses()})
}

func (h *MetaHandler) GetLocales(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": h.locales})
}

// Health reports whether the database answers.
func (h *MetaHandler) Health(c *gin.Context) {
	sqlDB, err := h.GetDB(c).DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "Health check failed", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
