package model

import "time"

// Submission status values.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// ValidSubmissionStatus reports whether s is a known submission status.
func ValidSubmissionStatus(s string) bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

// Submission is a listing proposed by a visitor and waiting for moderation.
//
// Approval copies it into a new Product and flips Status to "approved";
// the submission row itself is kept.
type Submission struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	CategoryID      *string   `json:"categoryId"`
	CategoryName    *string   `json:"categoryName"`
	Pricing         Pricing   `json:"pricing"`
	Email           *string   `json:"email"`
	LogoURL         *string   `json:"logoUrl"`
	ImageURL        *string   `json:"imageUrl"`
	Status          string    `json:"status"`
	RejectionReason *string   `json:"rejectionReason"`
	Slug            string    `json:"slug"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SubmissionUpdate carries the admin-editable fields of a submission.
// A nil field means "leave unchanged".
type SubmissionUpdate struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	URL          *string  `json:"url"`
	CategoryID   *string  `json:"categoryId"`
	CategoryName *string  `json:"categoryName"`
	Pricing      *Pricing `json:"pricing"`
	Email        *string  `json:"email"`
}
