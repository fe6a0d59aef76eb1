package middleware

import (
	"net/http"
	"strings"

	"addons_backend/internal/i18n"
	"addons_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

const (
	AppFirefox = "firefox"
	AppAndroid = "android"
)

var supportedApps = map[string]bool{
	AppFirefox: true,
	AppAndroid: true,
}

// First path segments served without a locale prefix.
var nonLocalePrefixes = map[string]bool{
	"api":         true,
	"metrics":     true,
	"healthz":     true,
	"static":      true,
	"favicon.ico": true,
	"robots.txt":  true,
}

// First path segments (after the locale) that take no app segment.
var nonAppPrefixes = map[string]bool{
	"about":      true,
	"developers": true,
	"admin":      true,
}

type urlPrefix struct {
	locale string
	app    string
	rest   string
}

func splitPath(langs *i18n.Languages, path string) urlPrefix {
	var p urlPrefix
	rest := strings.TrimPrefix(path, "/")

	first, remainder, _ := strings.Cut(rest, "/")
	if !supportedApps[strings.ToLower(first)] {
		if locale, ok := langs.Normalize(first); ok {
			p.locale = locale
			rest = remainder
		}
	}

	first, remainder, _ = strings.Cut(rest, "/")
	if app := strings.ToLower(first); supportedApps[app] {
		p.app = app
		rest = remainder
	}

	p.rest = rest
	return p
}

func firstSegment(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return first
}

func detectApp(userAgent string) string {
	if strings.Contains(userAgent, "Android") {
		return AppAndroid
	}
	return AppFirefox
}

// LocaleAndAppURL makes every web URL start with /<locale>/<app>/. Requests
// missing either prefix are redirected, and ?lang= swaps the locale.
func LocaleAndAppURL(langs *i18n.Languages, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isAPI(c) || nonLocalePrefixes[firstSegment(path)] {
			c.Next()
			return
		}

		p := splitPath(langs, path)
		query := c.Request.URL.Query()

		if lang := query.Get("lang"); lang != "" {
			locale, ok := langs.Normalize(lang)
			if !ok {
				locale = langs.Match(c.GetHeader("Accept-Language"))
			}
			target := buildPath(locale, p.appOr(c), p.rest)
			c.Redirect(http.StatusFound, withQuery(escapePath(target), SafeQuery(c.Request.URL.RawQuery, "lang")))
			c.Abort()
			return
		}

		locale := p.locale
		if locale == "" {
			locale = langs.Match(c.GetHeader("Accept-Language"))
		}
		app := p.appOr(c)

		target := buildPath(locale, app, p.rest)
		if target != path {
			if !debug {
				c.Header("Cache-Control", "max-age=31536000")
			}
			fixed := splitPath(langs, target)
			var vary []string
			if fixed.locale != p.locale {
				vary = append(vary, "Accept-Language")
			}
			if fixed.app != p.app {
				vary = append(vary, "User-Agent")
			}
			PatchVary(c, vary...)
			c.Redirect(http.StatusFound, withQuery(escapePath(target), SafeQuery(c.Request.URL.RawQuery)))
			c.Abort()
			return
		}

		c.Set(contextkeys.LocaleKey, locale)
		c.Set(contextkeys.AppKey, app)
		c.Next()
	}
}

func (p urlPrefix) appOr(c *gin.Context) string {
	if p.app != "" {
		return p.app
	}
	return detectApp(c.Request.UserAgent())
}

func buildPath(locale, app, rest string) string {
	parts := []string{"", locale}
	if !nonAppPrefixes[firstSegment(rest)] {
		parts = append(parts, app)
	}
	parts = append(parts, rest)
	return strings.Join(parts, "/")
}

// PatchVary adds headers to the Vary header, keeping existing entries.
func PatchVary(c *gin.Context, headers ...string) {
	if len(headers) == 0 {
		return
	}
	var existing []string
	for _, v := range c.Writer.Header().Values("Vary") {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				existing = append(existing, h)
			}
		}
	}
	for _, h := range headers {
		found := false
		for _, e := range existing {
			if strings.EqualFold(e, h) {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, h)
		}
	}
	c.Writer.Header().Set("Vary", strings.Join(existing, ", "))
}

// VaryAcceptEncoding marks every response that reaches it as varying on
// Accept-Encoding, compressed or not. Redirects abort before it runs.
func VaryAcceptEncoding() gin.HandlerFunc {
	return func(c *gin.Context) {
		PatchVary(c, "Accept-Encoding")
		c.Next()
	}
}

// CurrentLocale returns the locale chosen for the request.
func CurrentLocale(c *gin.Context, fallback string) string {
	if v := c.GetString(contextkeys.LocaleKey); v != "" {
		return v
	}
	return fallback
}

func CurrentApp(c *gin.Context) string {
	if v := c.GetString(contextkeys.AppKey); v != "" {
		return v
	}
	return AppFirefox
}
