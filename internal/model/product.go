package model

import "time"

// Pricing is the pricing tier advertised for a listing.
type Pricing string

const (
	PricingFree     Pricing = "Free"
	PricingFreemium Pricing = "Freemium"
	PricingPaid     Pricing = "Paid"
)

// PricingOptions lists every accepted Pricing value.
var PricingOptions = []Pricing{PricingFree, PricingFreemium, PricingPaid}

// Valid reports whether p is one of PricingOptions.
func (p Pricing) Valid() bool {
	for _, opt := range PricingOptions {
		if p == opt {
			return true
		}
	}
	return false
}

// Product status values. Only active products are shown to visitors.
const (
	ProductActive   = "active"
	ProductInactive = "inactive"
)

// Product is a published directory listing.
//
// Products are only created by approving a Submission. LikeCount is
// maintained by the store (triggers on the likes table); application code
// reads it but never writes it.
//
// Nullable columns are pointers so that JSON renders them as null, matching
// what the frontend expects for "no logo" or "no category".
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	CategoryID   *string   `json:"categoryId"`
	CategoryName *string   `json:"categoryName"`
	Pricing      Pricing   `json:"pricing"`
	LogoURL      *string   `json:"logoUrl"`
	ImageURL     *string   `json:"imageUrl"`
	Featured     bool      `json:"featured"`
	Status       string    `json:"status"`
	Slug         string    `json:"slug"`
	LikeCount    int       `json:"likeCount"`
	SubmissionID *string   `json:"submissionId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
