package core

import (
	"errors"
	"strconv"
	"strings"
)

// MaxUnits bounds the units tracked per denomination. Together with
// MaxCatalogValue it keeps every total inside int64.
const MaxUnits int64 = 1 << 40

var ErrInvalidCount = errors.New("invalid count")

// ParseCount converts a field's text into a non-negative unit count.
//
// Only plain base-10 digits are accepted after trimming surrounding
// whitespace. Empty strings, signs, fractions and values above MaxUnits
// return ErrInvalidCount.
//
// Examples:
//
//	ParseCount("12")   -> 12, nil
//	ParseCount(" 7 ")  -> 7, nil
//	ParseCount("abc")  -> 0, ErrInvalidCount
//	ParseCount("-1")   -> 0, ErrInvalidCount
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidCount
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrInvalidCount
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n > MaxUnits {
		return 0, ErrInvalidCount
	}
	return n, nil
}

// countOrInvalid maps a parse failure onto the negative "invalid" count the
// numeric setters understand.
func countOrInvalid(s string) int64 {
	n, err := ParseCount(s)
	if err != nil {
		return -1
	}
	return n
}

// clampUnits keeps a stored total inside [0, MaxUnits].
func clampUnits(n int64) int64 {
	if n < 0 {
		return 0
	}
	if n > MaxUnits {
		return MaxUnits
	}
	return n
}
