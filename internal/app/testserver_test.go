package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"addons_backend/internal/app"
	"addons_backend/internal/auth"
	"addons_backend/internal/config"
	"addons_backend/internal/email"
	"addons_backend/internal/middleware"
	"addons_backend/internal/models"
	"addons_backend/internal/services"
	"addons_backend/internal/testutil"
	"addons_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestServer is a full router over a private SQLite database.
type TestServer struct {
	Server   *httptest.Server
	DB       *gorm.DB
	Queue    *workers.MemoryQueue
	Mail     *email.RecordingProvider
	Services *services.ServiceContainer
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Server.SiteURL = "https://addons.example.com"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "addons"
	cfg.JWT.TTL = 60
	cfg.I18n.DefaultLanguage = "en-US"
	cfg.I18n.Languages = config.DefaultLanguages
	return cfg
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	db := testutil.NewDB(t)
	repos := services.NewRepositories()

	q := workers.NewMemoryQueue(1, 256)
	workers.NewRatingTasks(db, repos.Ratings, repos.Addons, nil).Register(q)

	templates, err := email.NewDefaultTemplateManager()
	require.NoError(t, err)
	mail := email.NewRecordingProvider(templates)

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.TokenTTL())
	container := services.NewServiceContainer(repos, q, mail, tokens, services.RatingServiceConfig{
		SiteURL:       cfg.Server.SiteURL,
		DefaultLocale: cfg.I18n.DefaultLanguage,
	})

	router := app.SetupRouter(cfg, db, container, middleware.NewRateLimiter(100, 100))
	server := httptest.NewServer(router)
	server.Client().CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	t.Cleanup(server.Close)

	return &TestServer{
		Server:   server,
		DB:       db,
		Queue:    q,
		Mail:     mail,
		Services: container,
	}
}

// Token signs a bearer token for u.
func (ts *TestServer) Token(t *testing.T, u *models.User) string {
	t.Helper()
	token, _, err := ts.Services.Tokens.Sign(u)
	require.NoError(t, err)
	return token
}

// DrainTasks runs the queued background tasks.
func (ts *TestServer) DrainTasks() int {
	return ts.Queue.Drain(context.Background())
}

func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()
	return ts.Do(t, method, path, body, func(req *http.Request) {
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	})
}

// Do sends a request after letting prepare adjust it.
func (ts *TestServer) Do(t *testing.T, method, path string, body interface{}, prepare func(*http.Request)) (*http.Response, string) {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prepare != nil {
		prepare(req)
	}

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(resBody)
}

func decodeJSON(t *testing.T, body string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), v), body)
}
