package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// A dollar sign, optional whitespace or literal "\n" noise, then up to six
// integer digits and exactly two fractional digits.
var dollarAmountPattern = regexp.MustCompile(`\$[\s\\n]*?([0-9]{1,6}\.[0-9]{2})`)

// ScanDollarAmounts returns every dollar amount in raw, in document order,
// without the currency sign.
func ScanDollarAmounts(raw string) []string {
	matches := dollarAmountPattern.FindAllStringSubmatch(raw, -1)
	amounts := make([]string, 0, len(matches))
	for _, m := range matches {
		amounts = append(amounts, m[1])
	}
	return amounts
}

// NormalizePrice reconciles a structured price ("$25.00", may be empty) with
// the amounts found in the raw page text. A non-zero structured price wins,
// then the first non-zero scanned amount. Zero is reported as unknown.
func NormalizePrice(structured, raw string) (string, bool) {
	if structured != "" && !IsZeroPrice(structured) {
		return structured, true
	}

	for _, amount := range ScanDollarAmounts(raw) {
		if !IsZeroPrice(amount) {
			return "$" + amount, true
		}
	}

	return "", false
}

// IsZeroPrice reports whether price parses to zero. Unparseable values are not zero.
func IsZeroPrice(price string) bool {
	cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(price), "$"))
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return true
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return false
	}
	return amount.IsZero()
}
