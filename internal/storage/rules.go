package storage

import (
	"errors"
	"fmt"
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Rule is the size and type policy for one kind of upload.
type Rule struct {
	Label    string            // used in error messages, e.g. "Logo"
	MaxBytes int64
	Types    map[string]string // accepted content type → file extension
	TypeList string            // human-readable list of Types
}

// LogoRule accepts logos up to 5MB, including SVG.
var LogoRule = Rule{
	Label:    "Logo",
	MaxBytes: 5 << 20,
	Types: map[string]string{
		"image/jpeg":    "jpg",
		"image/png":     "png",
		"image/webp":    "webp",
		"image/svg+xml": "svg",
	},
	TypeList: "JPEG, PNG, WebP, or SVG",
}

// ImageRule accepts product screenshots up to 10MB.
var ImageRule = Rule{
	Label:    "Image",
	MaxBytes: 10 << 20,
	Types: map[string]string{
		"image/jpeg": "jpg",
		"image/png":  "png",
		"image/webp": "webp",
	},
	TypeList: "JPEG, PNG, or WebP",
}

// RuleError is a rejected upload. Error() is the message for the submitter;
// Unwrap gives ErrTooLarge or ErrUnsupportedType.
type RuleError struct {
	Err     error
	Message string
}

func (e *RuleError) Error() string { return e.Message }
func (e *RuleError) Unwrap() error { return e.Err }

// Check validates an upload and returns the file extension to store it
// under.
func (r Rule) Check(contentType string, size int64) (string, error) {
	if size > r.MaxBytes {
		return "", &RuleError{ErrTooLarge, fmt.Sprintf("%s must be less than %dMB", r.Label, r.MaxBytes>>20)}
	}
	ext, ok := r.Types[contentType]
	if !ok {
		return "", &RuleError{ErrUnsupportedType, fmt.Sprintf("%s must be a %s file", r.Label, r.TypeList)}
	}
	return ext, nil
}
