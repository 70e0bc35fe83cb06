package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ai-directory/internal/handler"
	"github.com/sakif/ai-directory/internal/storage"
)

func TestUploadsHandler_Serve(t *testing.T) {
	e := newEnv(t)
	h := handler.NewUploadsHandler(e.uploads, e.logger)
	_, err := e.uploads.Put(context.Background(), storage.BucketLogos, "logo_1.svg", strings.NewReader(testSVG))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.HandleServe(rr, request(http.MethodGet, "/uploads/logos/logo_1.svg", nil, "bucket", "logos", "name", "logo_1.svg"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, testSVG, rr.Body.String())
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "sandbox")

	tests := []struct {
		name         string
		bucket, file string
	}{
		{"missing file", "logos", "logo_2.svg"},
		{"unknown bucket", "secrets", "logo_1.svg"},
		{"traversal", "logos", "../../etc/passwd"},
		{"hidden file", "logos", ".tmp-upload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.HandleServe(rr, request(http.MethodGet, "/uploads/x", nil, "bucket", tt.bucket, "name", tt.file))
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}
}
