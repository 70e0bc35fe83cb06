package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/ai-directory/internal/metrics"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository/sqlite"
	"github.com/sakif/ai-directory/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// newTestDB opens a seeded in-memory store closed at test end.
func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

// seedProduct creates an active product in the named category. mutate runs
// before the insert.
func seedProduct(t *testing.T, db *sqlite.DB, name, slug, category string, mutate ...func(*model.Product)) *model.Product {
	t.Helper()
	ctx := context.Background()

	p := &model.Product{
		Name:        name,
		Description: "A tool called " + name,
		URL:         "https://example.com/" + slug,
		Pricing:     model.PricingFree,
		Slug:        slug,
	}
	if category != "" {
		c, err := db.GetCategoryByName(ctx, category)
		if err != nil {
			t.Fatalf("GetCategoryByName(%q): %v", category, err)
		}
		p.CategoryID = &c.ID
		p.CategoryName = &c.Name
	}
	for _, m := range mutate {
		m(p)
	}
	if err := db.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct(%q): %v", slug, err)
	}
	return p
}

func seedUser(t *testing.T, db *sqlite.DB, githubID int64) *model.User {
	t.Helper()
	u := &model.User{GitHubID: githubID, Login: "user"}
	if err := db.Upsert(context.Background(), u); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return u
}

// memStore is an in-memory storage.Store.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Put(ctx context.Context, bucket, name string, r io.Reader) (*storage.Object, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[bucket+"/"+name]; ok {
		return nil, storage.ErrExists
	}
	m.objects[bucket+"/"+name] = data
	return &storage.Object{Bucket: bucket, Name: name, URL: "/uploads/" + bucket + "/" + name}, nil
}

func (m *memStore) Remove(ctx context.Context, bucket, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[bucket+"/"+name]; !ok {
		return storage.ErrNotFound
	}
	delete(m.objects, bucket+"/"+name)
	return nil
}

func (m *memStore) get(url string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.objects[strings.TrimPrefix(url, "/uploads/")])
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func upload(contentType string, size int) *Upload {
	return &Upload{
		Filename:    "file",
		ContentType: contentType,
		Size:        int64(size),
		Body:        bytes.NewReader(make([]byte, size)),
	}
}

var errBoom = errors.New("boom")
