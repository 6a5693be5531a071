// Package validation screens request input at the HTTP boundary and reports
// on the quality of freshly loaded catalog data.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/smartpharmacy-api/catalog"
	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/logging"
)

// Compile-time check to ensure DataValidatorImpl implements DataValidator
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// maxReportedNames caps the example names kept in a quality report
const maxReportedNames = 10

var (
	// Letters and marks of any script, digits and the punctuation found in drug names
	inputRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\-\.\+'/%,()]+$`)

	// Checked with strings.Contains on the lower-cased input
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "eval(", "expression(", "url(",
		"@import", "binding(", "behavior(",
		// SQL injection
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "exec(", "execute(",
		// Command injection
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() *DataValidatorImpl {
	return &DataValidatorImpl{}
}

// ReportDataQuality counts the catalog entries missing optional fields and
// lists duplicated trade names and suspicious prices. Findings are logged.
func (v *DataValidatorImpl) ReportDataQuality(entries []entities.CatalogEntry) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		TotalEntries:          len(entries),
		DuplicateTradeNames:   []string{},
		NonPositivePriceNames: []string{},
	}

	seen := make(map[string]int, len(entries))
	for _, e := range entries {
		key := catalog.Normalize(e.TradeName)
		seen[key]++
		if seen[key] == 2 && len(report.DuplicateTradeNames) < maxReportedNames {
			report.DuplicateTradeNames = append(report.DuplicateTradeNames, e.TradeName)
		}

		switch {
		case e.AvgPrice == nil:
			report.EntriesWithoutPrice++
		case *e.AvgPrice <= 0 && len(report.NonPositivePriceNames) < maxReportedNames:
			report.NonPositivePriceNames = append(report.NonPositivePriceNames, e.TradeName)
		}
		if strings.TrimSpace(e.TherapeuticGroup) == "" {
			report.EntriesWithoutGroup++
		}
		if strings.TrimSpace(e.Form) == "" {
			report.EntriesWithoutForm++
		}
	}

	if len(report.DuplicateTradeNames) > 0 {
		logging.Warn("Duplicate trade names in catalog",
			"count", len(report.DuplicateTradeNames),
			"examples", report.DuplicateTradeNames,
		)
	}
	if len(report.NonPositivePriceNames) > 0 {
		logging.Warn("Catalog entries with non-positive price", "examples", report.NonPositivePriceNames)
	}
	if report.EntriesWithoutPrice > 0 {
		logging.Warn("Catalog entries without price",
			"count", report.EntriesWithoutPrice,
			"total", report.TotalEntries,
		)
	}

	return report
}

// ValidateInput screens a free-text search query
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if utf8.RuneCountInString(input) > MaxQueryLen {
		return fmt.Errorf("input too long: maximum %d characters", MaxQueryLen)
	}

	words := strings.Fields(input)
	if len(words) > 8 {
		return fmt.Errorf("search query too complex: maximum 8 words allowed")
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters")
	}

	if hasExcessiveRepetition(input, 10) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// hasExcessiveRepetition reports whether any character repeats more than
// limit times in a row
func hasExcessiveRepetition(input string, limit int) bool {
	var prev rune
	run := 0
	for _, r := range input {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > limit {
			return true
		}
	}
	return false
}
