package intake

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// NameSimilarity computes a case-insensitive similarity ratio between two
// names, 0.0 to 1.0. Symmetric by construction of the sequence matcher's
// ratio over matched characters.
func NameSimilarity(a, b string) float64 {
	left := strings.Split(strings.ToLower(strings.TrimSpace(a)), "")
	right := strings.Split(strings.ToLower(strings.TrimSpace(b)), "")
	return difflib.NewMatcher(left, right).Ratio()
}
