package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RemoveSlash permanently redirects web URLs ending in a slash to the same
// URL without it. Locale and app roots such as /en-US/firefox/ are kept.
func RemoveSlash() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isAPI(c) || !strings.HasSuffix(path, "/") || isRootPath(path) {
			c.Next()
			return
		}

		target := strings.TrimRight(path, "/")
		c.Redirect(http.StatusMovedPermanently, withQuery(escapePath(target), SafeQuery(c.Request.URL.RawQuery)))
		c.Abort()
	}
}

// isRootPath reports paths made of at most a locale and an app segment.
func isRootPath(path string) bool {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return true
	}
	segments := strings.Split(trimmed, "/")
	if len(segments) > 2 {
		return false
	}
	last := strings.ToLower(segments[len(segments)-1])
	return len(segments) == 1 || supportedApps[last]
}
