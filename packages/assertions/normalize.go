package assertions

import "strings"

// NormalizeType folds case and treats spaces and hyphens as underscores, so
// "Shoe Store", "shoe-store" and "shoe_store" are the same type.
func NormalizeType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}
