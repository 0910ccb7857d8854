package models

import "strings"

// Predefined expense categories offered by the entry forms. Users may still
// record expenses under any other non-blank category.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryUtilities     = "Utilities"
	CategoryEntertainment = "Entertainment"
	CategoryHealth        = "Health"
	CategoryOther         = "Other"
)

// DefaultCategories returns the predefined categories in display order.
func DefaultCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransport,
		CategoryUtilities,
		CategoryEntertainment,
		CategoryHealth,
		CategoryOther,
	}
}

// IsDefaultCategory reports whether name is one of the predefined categories.
func IsDefaultCategory(name string) bool {
	for _, c := range DefaultCategories() {
		if c == name {
			return true
		}
	}
	return false
}

// NormalizeCategory trims surrounding whitespace from a category name.
func NormalizeCategory(name string) string {
	return strings.TrimSpace(name)
}
