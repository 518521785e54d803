// Package core provides money parsing and handling utilities.
//
// This file contains the tolerant amount parsing used on every report. Ledger
// output is pre-formatted by an external tool and may carry any currency glyph,
// so parsing never fails: unreadable numbers become zero.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// isNumeric reports whether r belongs to the digit/sign/decimal-separator class.
func isNumeric(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '.', r == ',', r == '-', r == '+':
		return true
	}
	return false
}

// ParseAmount extracts the numeric value of a raw ledger amount.
//
// Everything outside the numeric class is dropped, commas are treated as group
// separators and the longest leading number is read with '.' as the decimal
// point. Strings without a readable number yield zero.
//
// Examples:
//   ParseAmount("€ 1,234.50") -> 1234.50
//   ParseAmount("-12.50s")    -> -12.50
//   ParseAmount("n/a")        -> 0
func ParseAmount(raw string) decimal.Decimal {
	var sb strings.Builder
	for _, r := range raw {
		if isNumeric(r) {
			sb.WriteRune(r)
		}
	}
	return parseNumeric(sb.String())
}

// SplitAmount separates a raw amount into its currency and value. The currency
// may appear before or after the number; whitespace is ignored.
func SplitAmount(raw string) Amount {
	var num, cur strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			continue
		case isNumeric(r):
			num.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	return Amount{Currency: cur.String(), Value: parseNumeric(num.String())}
}

// IsNegative reports whether a raw amount string parses to a negative value.
func IsNegative(raw string) bool {
	return ParseAmount(raw).IsNegative()
}

// IsNegativeValue is the numeric counterpart of IsNegative.
func IsNegativeValue(v decimal.Decimal) bool {
	return v.IsNegative()
}

// parseNumeric reads the longest [+-]?digits[.digits] prefix of s after
// removing group separators.
func parseNumeric(s string) decimal.Decimal {
	s = strings.ReplaceAll(s, ",", "")
	i := 0
	neg := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intPart := s[start:i]
	frac := ""
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		frac = s[i+1 : j]
	}
	if intPart == "" && frac == "" {
		return decimal.Zero
	}
	if intPart == "" {
		intPart = "0"
	}
	num := intPart
	if frac != "" {
		num += "." + frac
	}
	v, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		v = v.Neg()
	}
	return v
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
