// Package price parses noisy, locale-mixed price strings into decimal amounts.
//
// Turkish shopping channels write prices in both Turkish ("1.859,12 TL") and
// US ("39,999.90") conventions, often with currency words, installment counts
// or unit-price notes attached. Parse is deterministic and side-effect free:
// it returns the amount, or 0 meaning "not a price".
package price

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// Amounts outside this band are never product prices in this domain:
	// below it they are shipping fees or coupon codes, above it parse noise.
	minSanePrice = 5
	maxSanePrice = 10_000_000
)

var (
	currencyRe = regexp.MustCompile(`(?i)(?:₺|TL|lira|TRY|USD|EUR|\$|€)`)
	parenRe    = regexp.MustCompile(`\([^)]*\)`)
	discountRe = regexp.MustCompile(`(?i)indirim`)
	keepRe     = regexp.MustCompile(`[^\d.,]`)
)

// Parse converts a price-bearing string into a non-negative amount.
// It returns 0 when the input is not a price: percentage strings, discount
// amounts ("150 TL indirim"), installment fragments outside the sane band,
// or plain garbage.
func Parse(s string) float64 {
	if s == "" {
		return 0
	}
	// A percent sign marks a discount rate, never a price.
	if strings.Contains(s, "%") {
		return 0
	}
	// "X TL indirim" is a discount amount, not a price.
	if discountRe.MatchString(s) {
		return 0
	}

	s = currencyRe.ReplaceAllString(s, "")
	s = parenRe.ReplaceAllString(s, "")
	s = keepRe.ReplaceAllString(s, "")
	if s == "" {
		return 0
	}

	s = normalizeSeparators(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if v < minSanePrice || v > maxSanePrice {
		return 0
	}
	return v
}

// normalizeSeparators rewrites s into strconv float syntax, disambiguating
// thousands vs. decimal separators:
//   - both '.' and ',' present: the separator occurring last is the decimal one,
//   - a lone ',' is decimal only when followed by 1-2 digits, else thousands,
//   - symmetric rule for a lone '.'.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// Turkish: "1.859,12"
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// US: "39,999.90"
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if isDecimalTail(s[lastComma+1:]) {
			s = strings.ReplaceAll(s[:lastComma], ",", "") + "." + s[lastComma+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if isDecimalTail(s[lastDot+1:]) {
			s = strings.ReplaceAll(s[:lastDot], ".", "") + "." + s[lastDot+1:]
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

func isDecimalTail(tail string) bool {
	if len(tail) < 1 || len(tail) > 2 {
		return false
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Sane reports whether v lies inside the band Parse itself accepts. Used to
// vet amounts that arrive already numeric, e.g. from an AI response.
func Sane(v float64) bool {
	return v >= minSanePrice && v <= maxSanePrice
}

// Format renders an amount so that Parse(Format(v)) == v for any v Parse can
// produce. Used when a price round-trips through a text field.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
