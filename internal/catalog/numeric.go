package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencySuffix = regexp.MustCompile(`\s*(EUR|USD|GBP|KN|HRK)\s*$`)

// ParseAmount parses a legacy text amount into a decimal.
// Handles "12.50", "12,50", "1.234,56", "1,234.56" and "12,50 EUR".
// Blank input yields nil without an error.
func ParseAmount(value string) (*decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return nil, nil
	}

	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case '€', '$', '£', ' ', '\u00A0':
			return -1
		}
		return r
	}, strings.ToUpper(cleaned))
	cleaned = currencySuffix.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return nil, fmt.Errorf("no numeric value in %q", value)
	}

	// The later separator is the decimal one
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	if lastComma > lastDot {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else if lastDot > lastComma {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return &d, nil
}
