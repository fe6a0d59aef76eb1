package middleware

import (
	"context"

	"addons_backend/internal/logger"
	"addons_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NoticeSource loads the current site notice.
type NoticeSource interface {
	Notice(ctx context.Context, db *gorm.DB) (string, error)
}

// SiteNotice exposes the admin site notice to web page handlers.
func SiteNotice(source NoticeSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAPI(c) {
			c.Next()
			return
		}
		if db, ok := c.Value(string(contextkeys.DBContextKey)).(*gorm.DB); ok {
			notice, err := source.Notice(c.Request.Context(), db)
			if err != nil {
				logger.CtxWithError(c.Request.Context(), "Failed to load site notice", err)
			} else if notice != "" {
				c.Set(contextkeys.SiteNotice, notice)
			}
		}
		c.Next()
	}
}
