package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/ai-directory/internal/auth"
	"github.com/sakif/ai-directory/internal/metrics"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository/sqlite"
	"github.com/sakif/ai-directory/internal/service"
	"github.com/sakif/ai-directory/internal/storage"
)

// env is a full in-memory stack: sqlite store, local uploads in a temp
// dir, and every service.
type env struct {
	db      *sqlite.DB
	uploads *storage.Local
	tokens  *auth.TokenService
	logger  *slog.Logger

	slugs       *service.SlugService
	likes       *service.LikeService
	catalog     *service.CatalogService
	submissions *service.SubmissionService
	admin       *service.AdminService
	sitemap     *service.SitemapService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	uploads, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	creds, _, err := auth.NewAdminCredentials(auth.NewPasswordServiceForTest(bcrypt.MinCost), "", "letmein")
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	slugs := service.NewSlugService(db, db)
	likes := service.NewLikeService(db, db, m, logger)

	return &env{
		db:          db,
		uploads:     uploads,
		tokens:      tokens,
		logger:      logger,
		slugs:       slugs,
		likes:       likes,
		catalog:     service.NewCatalogService(db, db, likes, logger),
		submissions: service.NewSubmissionService(db, db, slugs, uploads, m, logger),
		admin:       service.NewAdminService(creds, tokens, db, db, m, logger),
		sitemap:     service.NewSitemapService("https://example.com", db, db, logger),
	}
}

func (e *env) product(t *testing.T, name, slug string, mutate ...func(*model.Product)) *model.Product {
	t.Helper()
	ctx := context.Background()
	c, err := e.db.GetCategoryByName(ctx, "Coding")
	require.NoError(t, err)

	p := &model.Product{
		Name:         name,
		Description:  "About " + name,
		URL:          "https://example.com/" + slug,
		CategoryID:   &c.ID,
		CategoryName: &c.Name,
		Pricing:      model.PricingFree,
		Slug:         slug,
	}
	for _, m := range mutate {
		m(p)
	}
	require.NoError(t, e.db.CreateProduct(ctx, p))
	return p
}

func (e *env) user(t *testing.T, githubID int64) *model.User {
	t.Helper()
	u := &model.User{GitHubID: githubID, Login: "someone"}
	require.NoError(t, e.db.Upsert(context.Background(), u))
	return u
}

func (e *env) submission(t *testing.T, name, slug string) *model.Submission {
	t.Helper()
	s := &model.Submission{
		Name:        name,
		Description: "About " + name + " in detail",
		URL:         "https://example.com/" + slug,
		Pricing:     model.PricingPaid,
		Slug:        slug,
	}
	require.NoError(t, e.db.CreateSubmission(context.Background(), s))
	return s
}

// request builds a request with optional JSON body and path values.
func request(method, target string, body any, pathValues ...string) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return req
}

// as marks req as coming from userID, as OptionalAuth would.
func as(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "body: %s", rr.Body.String())
	return v
}
