// Package catalog provides the in-memory drug catalog: free-text resolution,
// substring search and same-ingredient substitute ranking, plus the sources
// the catalog is loaded from (CSV import or MySQL table).
package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds a name for comparison: NFC, trimmed, lower-cased.
// NFC keeps composed and decomposed Arabic/Latin input comparable.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
