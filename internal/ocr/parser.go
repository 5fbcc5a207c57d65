package ocr

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Patterns are tried in order; the first one with any match wins and its largest match is
// taken as the total.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)TOTAL[:\s]*\$?(\d+[.,]\d{2})`),
	regexp.MustCompile(`(?i)SUBTOTAL[:\s]*\$?(\d+[.,]\d{2})`),
	regexp.MustCompile(`\$(\d+[.,]\d{2})`),
	regexp.MustCompile(`(\d+[.,]\d{2})`),
}

// ISO dates go first so "2024-03-14" is not read as "24-03-14".
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}[/-]\d{1,2}[/-]\d{1,2}`),
	regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
	regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}`),
}

// Parse applies the receipt heuristics to detected text. Confidence is left to the caller.
func Parse(text string) *Result {
	return &Result{
		Merchant: ParseMerchant(text),
		Amount:   ParseAmount(text),
		Date:     ParseDate(text),
		RawText:  text,
	}
}

// ParseMerchant takes the first non-empty line.
func ParseMerchant(text string) *string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return &line
		}
	}
	return nil
}

func ParseAmount(text string) *decimal.Decimal {
	for _, pattern := range amountPatterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}

		var best *decimal.Decimal
		for _, m := range matches {
			amount, err := decimal.NewFromString(strings.Replace(m[1], ",", ".", 1))
			if err != nil {
				continue
			}
			if best == nil || amount.GreaterThan(*best) {
				a := amount
				best = &a
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func ParseDate(text string) *string {
	for _, pattern := range datePatterns {
		if match := pattern.FindString(text); match != "" {
			return &match
		}
	}
	return nil
}
