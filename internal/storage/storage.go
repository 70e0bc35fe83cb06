// Package storage keeps uploaded files (product logos and screenshots) in
// named buckets and hands back the public URL each file is served from.
//
// Local is the only backend: one directory per bucket under a root
// directory, served by the HTTP layer under /uploads/{bucket}/{name}.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Bucket names.
const (
	BucketLogos         = "logos"
	BucketProductImages = "product-images"
)

var buckets = map[string]bool{
	BucketLogos:         true,
	BucketProductImages: true,
}

var (
	ErrUnknownBucket = errors.New("storage: unknown bucket")
	ErrInvalidName   = errors.New("storage: invalid object name")
	ErrNotFound      = errors.New("storage: object not found")
	ErrExists        = errors.New("storage: object already exists")
)

// Object is a stored file.
type Object struct {
	Bucket string
	Name   string
	URL    string
}

// Store is what the submission service needs from a storage backend.
type Store interface {
	Put(ctx context.Context, bucket, name string, r io.Reader) (*Object, error)
	Remove(ctx context.Context, bucket, name string) error
}

// Local stores objects on the local filesystem.
type Local struct {
	root      string
	urlPrefix string
}

var _ Store = (*Local)(nil)

// NewLocal creates root and one directory per bucket. urlPrefix is
// prepended to "/{bucket}/{name}" to form public URLs, e.g. "/uploads".
func NewLocal(root, urlPrefix string) (*Local, error) {
	for b := range buckets {
		if err := os.MkdirAll(filepath.Join(root, b), 0o755); err != nil {
			return nil, fmt.Errorf("storage: creating bucket %s: %w", b, err)
		}
	}
	return &Local{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Put writes r to bucket/name. The data goes to a temp file first and is
// hard-linked into place, so readers never see a half-written object.
// An existing object is never replaced: Put returns ErrExists instead.
func (l *Local) Put(ctx context.Context, bucket, name string, r io.Reader) (*Object, error) {
	path, err := l.path(bucket, name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("storage: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("storage: writing %s/%s: %w", bucket, name, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("storage: closing %s/%s: %w", bucket, name, err)
	}
	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrExists, bucket, name)
		}
		return nil, fmt.Errorf("storage: publishing %s/%s: %w", bucket, name, err)
	}

	return &Object{Bucket: bucket, Name: name, URL: l.URL(bucket, name)}, nil
}

// Remove deletes bucket/name. Removing a missing object is not an error.
func (l *Local) Remove(ctx context.Context, bucket, name string) error {
	path, err := l.path(bucket, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: removing %s/%s: %w", bucket, name, err)
	}
	return nil
}

// Open returns the object for reading. The caller closes it.
func (l *Local) Open(bucket, name string) (*os.File, error) {
	path, err := l.path(bucket, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s/%s: %w", bucket, name, err)
	}
	return f, nil
}

// URL is the public URL of bucket/name.
func (l *Local) URL(bucket, name string) string {
	return l.urlPrefix + "/" + bucket + "/" + name
}

// path resolves bucket/name inside root, refusing unknown buckets and names
// that could escape the bucket directory.
func (l *Local) path(bucket, name string) (string, error) {
	if !buckets[bucket] {
		return "", fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(l.root, bucket, name), nil
}
