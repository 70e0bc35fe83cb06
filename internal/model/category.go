// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. Each struct here maps to one
// table in the store and to the JSON shape returned by the API.
package model

import "time"

// Category groups products in the directory. Categories are reference data:
// seeded on first migration and never mutated by the request paths.
//
// Relevance orders the category list (ascending) on the home page, the
// categories index and the sitemap.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	Relevance   int       `json:"relevance"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DefaultCategories is the seed list, in relevance order.
var DefaultCategories = []string{
	"Coding",
	"SEO",
	"Marketing",
	"Writing",
	"Web Scraping",
	"Video & Audio",
	"Design & UI/UX",
	"Analytics",
	"Email",
	"Task Management",
	"Content Creation",
	"Developer Tools",
	"Data Analysis",
	"Customer Support",
	"Project Management",
	"Communication",
	"Sales & CRM",
	"Finance & Accounting",
	"HR & Recruitment",
	"Ecommerce",
	"Security",
	"Social Media",
	"Education & Training",
	"Productivity",
	"Legal",
	"Payments",
}
