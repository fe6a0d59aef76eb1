package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"addons_backend/internal/auth"
	"addons_backend/internal/config"
	"addons_backend/internal/i18n"
	"addons_backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLocaleRouter() *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(
		APIDetection(),
		LocaleAndAppURL(i18n.NewLanguages(config.DefaultLanguages, "en-US"), false),
		RemoveSlash(),
	)
	page := func(c *gin.Context) {
		c.String(http.StatusOK, CurrentLocale(c, "")+"|"+CurrentApp(c))
	}
	r.GET("/:locale/:app/pages/appversions", page)
	r.GET("/:locale/about", page)
	r.GET("/api/v5/ping/", page)
	return r
}

func get(r http.Handler, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = c.GetString("request_id")
		c.Status(http.StatusOK)
	})

	w := get(r, "/", nil)
	id := w.Header().Get(RequestIDHeader)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), id)
	assert.Equal(t, id, seen)
}

func TestLocaleRedirectVaries(t *testing.T) {
	r := newLocaleRouter()

	w := get(r, "/pages/appversions/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/en-US/firefox/pages/appversions/", w.Header().Get("Location"))
	assert.Equal(t, "Accept-Language, User-Agent", w.Header().Get("Vary"))
	assert.Equal(t, "max-age=31536000", w.Header().Get("Cache-Control"))

	w = get(r, "/pages/appversions/", map[string]string{
		"Accept-Language": "de-DE,de;q=0.8",
		"User-Agent":      "Mozilla/5.0 (Android 14; Mobile; rv:120.0) Gecko/120.0 Firefox/120.0",
	})
	assert.Equal(t, "/de/android/pages/appversions/", w.Header().Get("Location"))

	// Only the app is missing.
	w = get(r, "/en-US/pages/appversions", nil)
	assert.Equal(t, "/en-US/firefox/pages/appversions", w.Header().Get("Location"))
	assert.Equal(t, "User-Agent", w.Header().Get("Vary"))

	// Following the redirects ends on the page without varying on cookies.
	w = get(r, "/en-US/firefox/pages/appversions/", nil)
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	w = get(r, w.Header().Get("Location"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "en-US|firefox", w.Body.String())
	assert.NotContains(t, w.Header().Get("Vary"), "Cookie")
}

func TestLocaleNormalizedPrefix(t *testing.T) {
	r := newLocaleRouter()
	w := get(r, "/en-us/firefox/pages/appversions", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/en-US/firefox/pages/appversions", w.Header().Get("Location"))
	// The locale came from the URL, not from the headers.
	assert.Empty(t, w.Header().Get("Vary"))
}

func TestNonAppSectionSkipsApp(t *testing.T) {
	r := newLocaleRouter()

	w := get(r, "/about", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/en-US/about", w.Header().Get("Location"))

	w = get(r, "/en-US/about", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLangSwapOnNonAppSection(t *testing.T) {
	r := newLocaleRouter()

	w := get(r, "/en-US/about?lang=de", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/de/about", w.Header().Get("Location"))

	w = get(r, "/en-US/about?lang=xx&src=home", map[string]string{"Accept-Language": "fr"})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/fr/about?src=home", w.Header().Get("Location"))
}

func TestRedirectWithUnicodeGet(t *testing.T) {
	r := newLocaleRouter()
	w := get(r, "/da/firefox/addon/5457?from=/da/firefox/addon/5457%3Fadvancedsearch%3D1"+
		"&lang=ja&utm_source=Google+%E3%83%90%E3%82%BA&utm_medium=twitter"+
		"&utm_term=Google+%E3%83%90%E3%82%BA", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	assert.Regexp(t, `^/ja/firefox/addon/5457\?`, location)
	assert.Contains(t, location, "utm_term=Google+%E3%83%90%E3%82%BA")
	assert.NotContains(t, location, "lang=")
}

func TestSourceWithWrongUnicodeGet(t *testing.T) {
	r := newLocaleRouter()
	w := get(r, "/firefox/collections/mozmj/autumn/?source=firefoxsocialmedia%14%85", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	assert.Regexp(t, `^/en-US/firefox/collections/mozmj/autumn/\?`, location)
	assert.True(t, strings.HasSuffix(location, "?source=firefoxsocialmedia%14%C2%85"), location)
}

func TestTrailingSlashMiddleware(t *testing.T) {
	r := newLocaleRouter()
	w := get(r, "/en-US/about/?xxx=%C3", nil)

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/en-US/about?xxx=%C3%83", w.Header().Get("Location"))

	// Locale and app roots keep their slash.
	w = get(r, "/en-US/firefox/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIRequestsSkipLocale(t *testing.T) {
	r := newLocaleRouter()
	w := get(r, "/api/v5/ping/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "|firefox", w.Body.String())
	assert.Empty(t, w.Header().Get("Vary"))
}

func TestSafeQuery(t *testing.T) {
	assert.Equal(t, "", SafeQuery(""))
	assert.Equal(t, "b=2&a=1", SafeQuery("b=2&a=1"))
	assert.Equal(t, "a=1&c=3", SafeQuery("a=1&lang=de&c=3", "lang"))
	assert.Equal(t, "flag", SafeQuery("flag"))
	assert.Equal(t, "q=%25zz+x", SafeQuery("q=%zz+x"))
	assert.Equal(t, "q=caf%C3%A9", SafeQuery("q=caf%E9"))
	assert.Equal(t, "q=caf%C3%A9", SafeQuery("q=caf%C3%A9"))
}

func TestPatchVary(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Header("Vary", "Accept-Encoding")
	PatchVary(c, "accept-encoding", "User-Agent")
	assert.Equal(t, "Accept-Encoding, User-Agent", w.Header().Get("Vary"))
}

func TestVaryAcceptEncoding(t *testing.T) {
	r := newLocaleRouter()
	r.Use(VaryAcceptEncoding())
	r.GET("/:locale/:app/addon/:slug", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("slug"))
	})

	// Redirects abort before the header is added.
	w := get(r, "/addon/foo", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.NotContains(t, w.Header().Get("Vary"), "Accept-Encoding")

	w = get(r, "/en-US/firefox/addon/foo", map[string]string{"Accept-Encoding": "identity"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
}

func TestAuthenticationWithoutAPI(t *testing.T) {
	cases := map[string]bool{
		"/":                                true,
		"/en-US/firefox/":                  true,
		"/api/v5/ratings/rating/":          false,
		"/api/v3/accounts/authenticate/":   true,
		"/api/v4/accounts/authenticate/":   true,
		"/api/v5/accounts/authenticate/":   true,
		"/api/v5/accounts/authenticate/x/": false,
	}
	for path, want := range cases {
		called := false
		inner := func(c *gin.Context) {
			called = true
			c.Next()
		}

		r := gin.New()
		r.Use(APIDetection(), AuthenticationWithoutAPI(inner))
		r.NoRoute(func(c *gin.Context) { c.Status(http.StatusNoContent) })

		w := get(r, path, nil)
		assert.Equal(t, http.StatusNoContent, w.Code, path)
		assert.Equal(t, want, called, path)
	}
}

func TestSessionAndBearerAuth(t *testing.T) {
	tokens := auth.NewTokenService("secret", "addons", time.Hour)
	admin := &models.User{Username: "admin", Role: models.UserRoleAdmin}
	admin.ID = 7
	token, _, err := tokens.Sign(admin)
	require.NoError(t, err)

	r := gin.New()
	r.Use(SessionAuth(tokens))
	api := r.Group("/api", BearerAuth(tokens))
	api.GET("/me", RequireAuth(), func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	api.GET("/admin", RequireRoles(models.UserRoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/reviewers", RequireRoles(models.UserRoleReviewer), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/api/me", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())

	w = get(r, "/api/me", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/api/me", map[string]string{"Cookie": SessionCookieName + "=" + token})
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/api/me", map[string]string{"Cookie": SessionCookieName + "=garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/api/admin", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/api/reviewers", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = get(r, "/api/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	r := gin.New()
	r.Use(rl.Handler())
	r.Any("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
	assert.Equal(t, http.StatusOK, get(r, "/x", nil).Code)

	assert.Equal(t, 0, rl.Cleanup(time.Hour))
	assert.Equal(t, 1, rl.Cleanup(0))
}
