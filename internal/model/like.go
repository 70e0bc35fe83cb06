package model

import "time"

// Like records that a user likes a product. The store holds at most one
// row per (UserID, ProductID).
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Viewer is the identity of whoever is making a request. Services take a
// *Viewer and treat nil as an anonymous visitor, so identity is always passed
// in explicitly rather than looked up from ambient session state.
type Viewer struct {
	UserID string
}

// NewViewer returns a Viewer for userID, or nil when userID is empty.
func NewViewer(userID string) *Viewer {
	if userID == "" {
		return nil
	}
	return &Viewer{UserID: userID}
}
