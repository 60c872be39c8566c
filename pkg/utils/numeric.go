package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseFloatOrZero parses a registry cell as a float. Empty, non-numeric and
// non-finite values become 0 so unknown capacity reads as "none available"
// instead of failing the row.
func ParseFloatOrZero(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// ParseIntOrZero parses a registry cell as an integer with the same zero
// fallback as ParseFloatOrZero. Fractional values ("3.0") are truncated.
func ParseIntOrZero(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if value, err := strconv.Atoi(trimmed); err == nil {
		return value
	}
	return int(ParseFloatOrZero(trimmed))
}

// exactExponent is low enough that NewFromFloatWithExponent keeps every
// binary digit of a float64.
const exactExponent = -1100

// Round rounds the exact binary value to the given number of decimal places.
// True ties go to the even digit, so 0.125 rounds to 0.12 while 2.675, which is
// stored just below the tie, rounds to 2.67.
func Round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	return decimal.NewFromFloatWithExponent(value, exactExponent).RoundBank(places).InexactFloat64()
}
