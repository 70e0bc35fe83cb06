// Package service contains the business rules of the directory.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, enforces rules, orchestrates
//	Repository      → reads/writes the store
//
// Services depend on the repository interfaces (or narrower ones declared
// here), never on *sqlite.DB, so tests can hand them fakes.
//
// Identity is explicit: operations that care about the caller take a
// *model.Viewer, where nil means an anonymous visitor. No service reads
// session state on its own.
package service

// List limits.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	RelatedLimit     = 4
)

// clampLimit applies DefaultListLimit to non-positive limits and caps the
// rest at MaxListLimit.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
