// Package auth provides JWT session tokens, GitHub OAuth, bcrypt password
// checks and the HTTP middleware that turns a cookie into an identity.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. User visits /auth/github/login → redirected to GitHub
//  2. GitHub calls back /auth/github/callback with a code
//  3. Server exchanges code for GitHub user info, upserts user in DB
//  4. Server issues a JWT, stores it in the HttpOnly "token" cookie
//  5. On /api calls, OptionalAuth validates the cookie and puts the userID
//     in the request context
//
// The administrator is a separate principal: POST /api/admin/login checks a
// bcrypt hash and issues a token with role "admin" in the "admin_token"
// cookie. A user token never passes RequireAdmin and an admin token never
// identifies a user.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"userID","role":"user","iss":"ai-directory","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "ai-directory"

// Token roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Token lifetimes.
const (
	UserTokenTTL  = 7 * 24 * time.Hour
	AdminTokenTTL = 12 * time.Hour
)

// adminSubject is the "sub" of admin tokens. There is a single admin
// principal, configured by password.
const adminSubject = "admin"

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Generate signs a user session token for userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.sign(userID, RoleUser, UserTokenTTL)
}

// GenerateWithDuration signs a user token with a custom lifetime.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	return s.sign(userID, RoleUser, d)
}

// GenerateAdmin signs an admin session token.
func (s *TokenService) GenerateAdmin() (string, error) {
	return s.sign(adminSubject, RoleAdmin, AdminTokenTTL)
}

func (s *TokenService) sign(subject, role string, d time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies a user token and returns the userID in its "sub" claim.
// Admin tokens are rejected.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	c, err := s.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if c.Role != RoleUser {
		return "", fmt.Errorf("auth: token role %q is not a user token", c.Role)
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return c.Subject, nil
}

// ValidateAdmin verifies an admin token.
func (s *TokenService) ValidateAdmin(tokenStr string) error {
	c, err := s.parse(tokenStr)
	if err != nil {
		return err
	}
	if c.Role != RoleAdmin {
		return fmt.Errorf("auth: token role %q is not an admin token", c.Role)
	}
	return nil
}

// parse checks the signature, algorithm, issuer and expiry.
//
// jwt.WithValidMethods pins HS256 so a token claiming "alg":"none" (or an
// asymmetric algorithm keyed with our secret) is rejected.
func (s *TokenService) parse(tokenStr string) (*claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	return c, nil
}
