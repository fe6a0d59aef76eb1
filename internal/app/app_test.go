package app_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"addons_backend/internal/middleware"
	"addons_backend/internal/models"
	"addons_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingLifecycle(t *testing.T) {
	ts := NewTestServer(t)
	author := testutil.CreateUser(t, ts.DB, "author", models.UserRoleUser)
	rater := testutil.CreateUser(t, ts.DB, "rater", models.UserRoleUser)
	flagger := testutil.CreateUser(t, ts.DB, "flagger", models.UserRoleUser)
	reviewer := testutil.CreateUser(t, ts.DB, "reviewer", models.UserRoleReviewer)
	addon, _ := testutil.CreateAddon(t, ts.DB, "foo", author)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v5/ratings/rating/", "", map[string]interface{}{
		"addon": addon.ID, "score": 4, "body": "Nice",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, body)

	raterToken := ts.Token(t, rater)
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v5/ratings/rating/", raterToken, map[string]interface{}{
		"addon": addon.ID, "score": 4, "body": "Nice",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var created struct {
		ID       uint `json:"id"`
		Score    int  `json:"score"`
		IsLatest bool `json:"is_latest"`
	}
	decodeJSON(t, body, &created)
	assert.Equal(t, 4, created.Score)
	assert.True(t, created.IsLatest)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v5/ratings/rating/", raterToken, map[string]interface{}{
		"addon": addon.ID, "score": 2,
	})
	assert.Equal(t, http.StatusConflict, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v5/ratings/rating/", raterToken, map[string]interface{}{
		"addon": addon.ID, "score": 9,
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)

	authorToken := ts.Token(t, author)
	replyPath := fmt.Sprintf("/api/v5/ratings/rating/%d/reply/", created.ID)
	res, body = ts.SendRequest(t, http.MethodPost, replyPath, authorToken, map[string]string{"body": "Thanks"})
	assert.Equal(t, http.StatusCreated, res.StatusCode, body)
	res, body = ts.SendRequest(t, http.MethodPost, replyPath, authorToken, map[string]string{"body": "Thanks again"})
	assert.Equal(t, http.StatusOK, res.StatusCode, body)
	res, body = ts.SendRequest(t, http.MethodPost, replyPath, raterToken, map[string]string{"body": "Me too"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode, body)

	ts.DrainTasks()

	res, body = ts.SendRequest(t, http.MethodGet, fmt.Sprintf("/api/v5/ratings/rating/?addon=%d", addon.ID), "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var list struct {
		Count   int `json:"count"`
		Results []struct {
			ID    uint `json:"id"`
			Reply *struct {
				Body string `json:"body"`
			} `json:"reply"`
		} `json:"results"`
	}
	decodeJSON(t, body, &list)
	require.Equal(t, 1, list.Count)
	require.NotNil(t, list.Results[0].Reply)
	assert.Equal(t, "Thanks again", list.Results[0].Reply.Body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v5/ratings/rating/", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)

	flagPath := fmt.Sprintf("/api/v5/ratings/rating/%d/flag/", created.ID)
	res, body = ts.SendRequest(t, http.MethodPost, flagPath, ts.Token(t, flagger), map[string]string{"flag": models.FlagReasonSpam})
	assert.Equal(t, http.StatusAccepted, res.StatusCode, body)
	res, body = ts.SendRequest(t, http.MethodPost, flagPath, raterToken, map[string]string{"flag": models.FlagReasonSpam})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v5/reviewers/ratings/moderation/", raterToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, body)

	reviewerToken := ts.Token(t, reviewer)
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v5/reviewers/ratings/moderation/", reviewerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var queue struct {
		Count int `json:"count"`
	}
	decodeJSON(t, body, &queue)
	assert.Equal(t, 1, queue.Count)

	res, body = ts.SendRequest(t, http.MethodPost, fmt.Sprintf("/api/v5/reviewers/ratings/%d/delete/", created.ID), reviewerToken, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, fmt.Sprintf("/api/v5/ratings/rating/%d/", created.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, fmt.Sprintf("/api/v5/reviewers/ratings/log/?addon=%d", addon.ID), reviewerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, models.ActionDeleteRating.String())
}

func TestUndeleteRequiresAdmin(t *testing.T) {
	ts := NewTestServer(t)
	author := testutil.CreateUser(t, ts.DB, "author", models.UserRoleUser)
	rater := testutil.CreateUser(t, ts.DB, "rater", models.UserRoleUser)
	admin := testutil.CreateUser(t, ts.DB, "admin", models.UserRoleAdmin)
	addon, version := testutil.CreateAddon(t, ts.DB, "foo", author)
	rating := testutil.CreateRating(t, ts.DB, addon, version, rater, 3, "Meh")

	res, body := ts.SendRequest(t, http.MethodDelete, fmt.Sprintf("/api/v5/ratings/rating/%d/", rating.ID), ts.Token(t, rater), nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode, body)

	path := fmt.Sprintf("/api/v5/admin/ratings/%d/undelete/", rating.ID)
	res, body = ts.SendRequest(t, http.MethodPost, path, ts.Token(t, rater), nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, path, ts.Token(t, admin), nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"body":"Meh"`)
}

func TestAuthenticateSetsSessionCookie(t *testing.T) {
	ts := NewTestServer(t)
	user, err := ts.Services.AuthService.Register(context.Background(), ts.DB, "someone@example.com", "someone", "password123", models.UserRoleUser)
	require.NoError(t, err)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v5/accounts/authenticate/", "", map[string]string{
		"email": "someone@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v5/accounts/authenticate/", "", map[string]string{
		"email": "someone@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var session *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == middleware.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	var auth struct {
		Token  string `json:"token"`
		UserID uint   `json:"user_id"`
	}
	decodeJSON(t, body, &auth)
	assert.Equal(t, user.ID, auth.UserID)
	assert.Equal(t, session.Value, auth.Token)

	// The session cookie is ignored by the API.
	res, body = ts.Do(t, http.MethodGet, "/api/v5/accounts/profile/", nil, func(req *http.Request) {
		req.AddCookie(session)
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v5/accounts/profile/", auth.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"username":"someone"`)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v5/accounts/profile/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, body)
}

func TestSiteNoticeOnPages(t *testing.T) {
	ts := NewTestServer(t)
	user := testutil.CreateUser(t, ts.DB, "user", models.UserRoleUser)
	admin := testutil.CreateUser(t, ts.DB, "admin", models.UserRoleAdmin)

	res, body := ts.SendRequest(t, http.MethodGet, "/en-US/firefox/pages/appversions", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.NotContains(t, body, `id="site-notice"`)

	res, body = ts.SendRequest(t, http.MethodPut, "/api/v5/admin/site-notice/", ts.Token(t, user), map[string]string{"notice": "ou ou ou"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPut, "/api/v5/admin/site-notice/", ts.Token(t, admin), map[string]string{"notice": "ou ou ou"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/en-US/firefox/pages/appversions", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `<div id="site-notice">ou ou ou</div>`)
	assert.Contains(t, body, "Firefox")

	res, body = ts.SendRequest(t, http.MethodGet, "/en-US/about", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, "ou ou ou")

	// API responses never carry the notice.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v5/licenses/", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.NotContains(t, body, "ou ou ou")
}

func TestRatingDetailPage(t *testing.T) {
	ts := NewTestServer(t)
	author := testutil.CreateUser(t, ts.DB, "author", models.UserRoleUser)
	rater := testutil.CreateUser(t, ts.DB, "rater", models.UserRoleUser)
	addon, version := testutil.CreateAddon(t, ts.DB, "foo", author)
	rating := testutil.CreateRating(t, ts.DB, addon, version, rater, 5, "Best <b>addon</b>")
	testutil.CreateReply(t, ts.DB, rating, author, "Thank you")
	other, _ := testutil.CreateAddon(t, ts.DB, "bar", author)

	res, body := ts.SendRequest(t, http.MethodGet, fmt.Sprintf("/en-US/firefox/addon/foo/reviews/%d", rating.ID), "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, "Review for Foo")
	assert.Contains(t, body, "Best &lt;b&gt;addon&lt;/b&gt;")
	assert.Contains(t, body, "Thank you")

	res, _ = ts.SendRequest(t, http.MethodGet, fmt.Sprintf("/en-US/firefox/addon/%s/reviews/%d", other.Slug, rating.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = ts.SendRequest(t, http.MethodGet, "/en-US/firefox/addon/foo/reviews/999", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestLocaleAndSlashRedirects(t *testing.T) {
	ts := NewTestServer(t)

	res, _ := ts.Do(t, http.MethodGet, "/about", nil, func(req *http.Request) {
		req.Header.Set("Accept-Language", "de")
	})
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/de/about", res.Header.Get("Location"))
	assert.Contains(t, res.Header.Get("Vary"), "Accept-Language")
	assert.NotContains(t, res.Header.Get("Vary"), "Accept-Encoding")

	res, _ = ts.Do(t, http.MethodGet, "/pages/appversions", nil, func(req *http.Request) {
		req.Header.Set("User-Agent", "Mozilla/5.0 (Android 9; Mobile; rv:68.0) Gecko/68.0 Firefox/68.0")
	})
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/en-US/android/pages/appversions", res.Header.Get("Location"))

	res, _ = ts.SendRequest(t, http.MethodGet, "/en-US/about/?xxx=%C3", "", nil)
	assert.Equal(t, http.StatusMovedPermanently, res.StatusCode)
	assert.Equal(t, "/en-US/about?xxx=%C3%83", res.Header.Get("Location"))

	// API paths are neither prefixed nor slash-redirected.
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v5/licenses", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res, body := ts.SendRequest(t, http.MethodGet, "/api/v5/licenses/", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 8, strings.Count(body, `"builtin"`))
}

func TestNoVaryCookie(t *testing.T) {
	ts := NewTestServer(t)

	res, _ := ts.Do(t, http.MethodGet, "/pages/appversions", nil, func(req *http.Request) {
		req.Header.Set("Accept-Encoding", "identity")
	})
	require.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "Accept-Language, User-Agent", res.Header.Get("Vary"))

	res, _ = ts.Do(t, http.MethodGet, res.Header.Get("Location"), nil, func(req *http.Request) {
		req.Header.Set("Accept-Encoding", "identity")
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Accept-Encoding", res.Header.Get("Vary"))
	assert.Empty(t, res.Header.Get("Content-Encoding"))

	res, _ = ts.SendRequest(t, http.MethodGet, "/en-US/firefox/pages/appversions", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Accept-Encoding", res.Header.Get("Vary"))
}

func TestOperationalEndpoints(t *testing.T) {
	ts := NewTestServer(t)

	res, body := ts.SendRequest(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "http_requests_total")

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v5/locales/", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `"code":"pt-BR"`)
	assert.NotEmpty(t, res.Header.Get(middleware.RequestIDHeader))
}
