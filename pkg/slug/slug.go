// Package slug converts display names into URL-safe catalog identifiers
package slug

import "strings"

// Make lowercases the name, collapses every run of characters outside
// [a-z0-9] into a single '-', and strips leading/trailing dashes.
// Slugs are a pure function of the name; two names that fold to the same
// slug are treated as the same record inside a scope.
func Make(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	pendingDash := false
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		} else {
			pendingDash = true
		}
	}

	return b.String()
}
