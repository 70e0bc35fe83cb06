package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/ai-directory/internal/auth"
	"github.com/sakif/ai-directory/internal/config"
	"github.com/sakif/ai-directory/internal/model"
)

const testSecret = "test-secret-at-least-16-chars!!"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)

	return &config.Config{
		Server: config.ServerConfig{
			Port:           0,
			SiteURL:        "https://example.com",
			MaxUploadBytes: 1 << 20,
		},
		Storage: config.StorageConfig{
			DBPath:    ":memory:",
			UploadDir: t.TempDir(),
		},
		Auth: config.AuthConfig{
			JWTSecret:         testSecret,
			AdminPasswordHash: string(hash),
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func do(s *Server, method, target string, body io.Reader, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if method == http.MethodPost && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestServer_PublicRoutes(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	tests := []struct {
		target     string
		wantStatus int
		wantBody   string
	}{
		{"/healthz", http.StatusOK, `"ok"`},
		{"/robots.txt", http.StatusOK, "Sitemap: https://example.com/sitemap.xml"},
		{"/sitemap.xml", http.StatusOK, "<loc>https://example.com/categories/coding</loc>"},
		{"/api/categories", http.StatusOK, `"Coding"`},
		{"/api/products", http.StatusOK, "[]"},
		{"/api/slugs/suggest?name=Hello+World", http.StatusOK, `"hello-world"`},
		{"/uploads/logos/nothing.png", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := do(s, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
		})
	}

	rr := do(s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `http_requests_total{method="GET",route="/api/categories",status="2xx"} 1`)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestServer_DisabledAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth = config.AuthConfig{}
	s := newTestServer(t, cfg)

	for _, target := range []string{"/api/admin/login", "/auth/logout"} {
		assert.Equal(t, http.StatusNotFound, do(s, http.MethodPost, target, nil).Code, target)
	}
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/me", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/auth/github/login", nil).Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/products", nil).Code)
}

func TestServer_SubmitAndModerate(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	form := url.Values{
		"name":        {"Cursor"},
		"description": {"An AI-first code editor"},
		"url":         {"cursor.com"},
		"category":    {"Coding"},
		"pricing":     {"Freemium"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/submissions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var sub model.Submission
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sub))

	assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodGet, "/api/admin/submissions", nil).Code)

	rr = do(s, http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(s, http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"letmein"}`))
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	admin := cookies[0]

	rr = do(s, http.MethodGet, "/api/admin/submissions?status=pending", nil, admin)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), sub.ID)

	rr = do(s, http.MethodPost, "/api/admin/submissions/"+sub.ID+"/approve", nil, admin)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(s, http.MethodGet, "/api/products/slug/cursor", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"url":"https://cursor.com"`)

	rr = do(s, http.MethodGet, "/metrics", nil)
	assert.Contains(t, rr.Body.String(), "directory_submissions_total 1")
	assert.Contains(t, rr.Body.String(), `directory_moderations_total{action="approve"} 1`)
}

func TestServer_LikeWithSession(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	ctx := t.Context()

	c, err := s.db.GetCategoryByName(ctx, "Coding")
	require.NoError(t, err)
	p := &model.Product{Name: "Cursor", Description: "Editor", URL: "https://cursor.com", CategoryID: &c.ID, CategoryName: &c.Name, Pricing: model.PricingFree, Slug: "cursor"}
	require.NoError(t, s.db.CreateProduct(ctx, p))
	u := &model.User{GitHubID: 7, Login: "octo"}
	require.NoError(t, s.db.Upsert(ctx, u))

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	token, err := tokens.Generate(u.ID)
	require.NoError(t, err)
	session := &http.Cookie{Name: auth.UserCookie, Value: token}

	rr := do(s, http.MethodPost, "/api/products/"+p.ID+"/like", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(s, http.MethodPost, "/api/products/"+p.ID+"/like", nil, session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"isLiked":true,"likeCount":1}`, rr.Body.String())

	rr = do(s, http.MethodGet, "/api/me/likes", nil, session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), p.ID)

	rr = do(s, http.MethodGet, "/api/me", nil, session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "octo")
}
