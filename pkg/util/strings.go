package util

import (
	"strconv"
	"strings"
)

// NormalizeSymbol upper-cases and trims a trading pair ("btcusdt " -> "BTCUSDT").
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseFloat parses exchange decimal strings; empty input is zero.
func ParseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
