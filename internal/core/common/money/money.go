package money

import "github.com/shopspring/decimal"

// Percentage returns part/whole*100 rounded to two places, or zero when whole is not positive.
func Percentage(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole)).
		Round(2)
	return pct.InexactFloat64()
}

// Major converts minor units into a decimal amount with two fractional digits.
func Major(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// Format renders minor units as "1,234.56".
func Format(minor int64) string {
	s := Major(minor).StringFixed(2)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var out []byte
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i])
	}
	if neg {
		return "-" + string(out) + frac
	}
	return string(out) + frac
}

// FromMajor converts a decimal amount into minor units, rounding half away from zero.
func FromMajor(major decimal.Decimal) int64 {
	return major.Shift(2).Round(0).IntPart()
}
