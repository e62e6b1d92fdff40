package port

import "cultura/internal/domain"

// CultureRegistry resolves culture identifiers. Unknown identifiers resolve
// to a default profile rather than an error.
type CultureRegistry interface {
	Resolve(id string) domain.CultureProfile
	Notes(id string) string
}
