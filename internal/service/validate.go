package service

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/model"
)

// Field limits for submissions and admin edits.
const (
	MaxNameLength        = 100
	MinDescriptionLength = 10
	MaxDescriptionLength = 500
)

// blockedHosts may never be listed. Suffixes in blockedHostSuffixes cover
// mDNS and internal-only names.
var (
	blockedHosts        = map[string]bool{"localhost": true, "127.0.0.1": true, "0.0.0.0": true, "::1": true}
	blockedHostSuffixes = []string{".local", ".internal"}
)

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "Product name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", apperror.ValidationFailed("name", "Product name must be less than 100 characters")
	}
	return name, nil
}

func validateDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	n := utf8.RuneCountInString(desc)
	if n < MinDescriptionLength {
		return "", apperror.ValidationFailed("description", "Description must be at least 10 characters")
	}
	if n > MaxDescriptionLength {
		return "", apperror.ValidationFailed("description", "Description must be less than 500 characters")
	}
	return desc, nil
}

func validatePricing(p string) (model.Pricing, error) {
	pricing := model.Pricing(strings.TrimSpace(p))
	if !pricing.Valid() {
		return "", apperror.ValidationFailed("pricing", "Please select a pricing option")
	}
	return pricing, nil
}

func validateEmail(email string) (*string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, apperror.ValidationFailed("email", "Please enter a valid email address")
	}
	return &email, nil
}

// NormalizeURL validates a product URL and returns it in canonical form.
//
// A bare domain gets "https://" prepended. The result must be http(s) with
// a host, and the host must not point at the server itself or a private
// name (localhost, loopback, *.local, *.internal).
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperror.ValidationFailed("url", "URL is required")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Hostname() == "" {
		return "", apperror.ValidationFailed("url", "Please enter a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", apperror.ValidationFailed("url", "URL must start with http:// or https://")
	}

	host := strings.ToLower(u.Hostname())
	if blockedHosts[host] {
		return "", apperror.ValidationFailed("url", "This URL is not allowed")
	}
	for _, suffix := range blockedHostSuffixes {
		if strings.HasSuffix(host, suffix) {
			return "", apperror.ValidationFailed("url", "This URL is not allowed")
		}
	}

	return u.String(), nil
}
