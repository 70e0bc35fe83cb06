package model

import "time"

// User represents a registered user account.
//
// GitHub OAuth is the identity provider, so the primary external identifier
// is the GitHub user ID. We still generate our own internal string ID (xid)
// so likes reference our key, not a third party's numbering scheme.
//
// Email is a plain string: GitHub returns an empty email when the user hides
// it, and an empty string is simpler to handle than a nullable pointer.
type User struct {
	ID        string    `json:"id"        db:"id"`
	GitHubID  int64     `json:"githubId"  db:"github_id"`  // GitHub's numeric user ID
	Login     string    `json:"login"     db:"login"`      // GitHub username
	Email     string    `json:"email"     db:"email"`      // Primary public email (may be empty)
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"` // Profile picture URL
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
