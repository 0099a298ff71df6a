// Package pricing turns the noisy numeric text found on purchase orders into
// usable values.
package pricing

import (
	"strconv"
	"strings"
)

// Normalize keeps only digits and decimal points from raw and parses the
// result. Empty or unparseable input yields 0, so a zero result cannot tell
// "free" apart from "garbage". Signs are stripped, the result is never negative.
func Normalize(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}
